// Package extract turns the raw text of a broker statement into a typed
// payout fact. Extraction is heuristic: documents come from several issuers
// with no shared schema, so each field is resolved by an ordered table of
// strategies and the result carries per-field provenance.
package extract

import "strings"

// Document is the raw text recovered from one statement, split into lines.
// Line order matches the document's visual top-to-bottom order; the
// positional issuer-name heuristic depends on that invariant.
type Document struct {
	text  string
	lines []string
}

// NewDocument builds a Document from recovered text. Blank lines are
// dropped; they carry no field content and only widen positional lookups.
func NewDocument(raw string) *Document {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return &Document{text: normalized, lines: lines}
}

// Text returns the full raw text
func (d *Document) Text() string {
	return d.text
}

// Lines returns the non-blank lines in document order
func (d *Document) Lines() []string {
	return d.lines
}
