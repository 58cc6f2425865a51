package extract

import (
	"regexp"
	"strings"
)

// Field identifies one extractable statement field.
type Field string

const (
	FieldAmount     Field = "amount"
	FieldPayDate    Field = "pay_date"
	FieldISIN       Field = "isin"
	FieldIssuerName Field = "issuer_name"
)

// Confidence distinguishes values read from the document from values the
// engine substituted when no strategy matched.
type Confidence string

const (
	ConfidenceParsed  Confidence = "parsed"
	ConfidenceGuessed Confidence = "guessed"
)

// Candidate is the result of one strategy for one field: the raw matched
// substring plus the name of the strategy that produced it. The zero value
// means "absent".
type Candidate struct {
	Raw        string
	Strategy   string
	Confidence Confidence
}

// Found reports whether any strategy produced this candidate.
func (c Candidate) Found() bool {
	return c.Strategy != ""
}

// Selection picks which of a pattern's matches wins.
type Selection int

const (
	// SelectFirst takes the first match in the document.
	SelectFirst Selection = iota
	// SelectLast takes the last match; used where an issuer repeats
	// subtotals before the final total.
	SelectLast
)

// Rule is one named strategy for a field: a pattern with a single capture
// group and a selection policy over its matches. Rules are data; adding an
// issuer layout means appending rules, not forking extractor code.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Select  Selection
}

func (r Rule) apply(text string) (string, bool) {
	matches := r.Pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}

	m := matches[0]
	if r.Select == SelectLast {
		m = matches[len(matches)-1]
	}
	return strings.TrimSpace(m[1]), true
}

// Template is the rule set for one issuer layout. A non-empty Marker pins a
// document to this template when the marker text appears anywhere in it, so
// fields are never mixed across incompatible layouts. The template with an
// empty Marker is the generic fallback.
type Template struct {
	Name    string
	Marker  string
	Amount  []Rule
	PayDate []Rule
}

// genericDateRules are shared by all observed layouts: labeled value-date
// keywords in priority order, then the first bare DD.MM.YYYY token.
func genericDateRules() []Rule {
	return []Rule{
		{Name: "valuta", Pattern: regexp.MustCompile(`(?i)\bValuta\b[:\s]*(\d{2}\.\d{2}\.\d{4})`)},
		{Name: "zahltag", Pattern: regexp.MustCompile(`(?i)\bZahltag\b[:\s]*(\d{2}\.\d{2}\.\d{4})`)},
		{Name: "zahlbar-am", Pattern: regexp.MustCompile(`(?i)\bZahlbar am\b[:\s]*(\d{2}\.\d{2}\.\d{4})`)},
		{Name: "datum", Pattern: regexp.MustCompile(`(?i)\bDatum\b[:\s]*(\d{2}\.\d{2}\.\d{4})`)},
		{Name: "bare-date", Pattern: regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`)},
	}
}

// DefaultTemplates returns the rule sets for the observed issuer layouts.
//
// The generic amount priority order is: Nettobetrag, Betrag,
// Ausmachungsbetrag, Endbetrag, Gutschrift, Summe, then the last bare
// "<number> EUR" token in the document. The Trade Republic layout repeats
// GESAMT subtotals before the final total, so its amount rule takes the
// last GESAMT occurrence.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:   "trade-republic",
			Marker: "GESAMT",
			Amount: []Rule{
				{Name: "gesamt-last", Pattern: regexp.MustCompile(`GESAMT\s+([\d.,]+)\s*EUR`), Select: SelectLast},
				{Name: "bare-amount-last", Pattern: regexp.MustCompile(`([\d.,]+)\s*EUR`), Select: SelectLast},
			},
			PayDate: genericDateRules(),
		},
		{
			Name: "generic",
			Amount: []Rule{
				{Name: "nettobetrag", Pattern: regexp.MustCompile(`(?i)\bNettobetrag\b[:\s]*([\d.,]+)\s*EUR`)},
				{Name: "betrag", Pattern: regexp.MustCompile(`(?i)\bBetrag\b[:\s]*([\d.,]+)\s*EUR`)},
				{Name: "ausmachungsbetrag", Pattern: regexp.MustCompile(`(?i)\bAusmachungsbetrag\b[:\s]*([\d.,]+)\s*EUR`)},
				{Name: "endbetrag", Pattern: regexp.MustCompile(`(?i)\bEndbetrag\b[:\s]*([\d.,]+)\s*EUR`)},
				{Name: "gutschrift", Pattern: regexp.MustCompile(`(?i)\bGutschrift\b[:\s]*([\d.,]+)\s*EUR`)},
				{Name: "summe", Pattern: regexp.MustCompile(`(?i)\bSumme\b[:\s]*([\d.,]+)\s*EUR`)},
				{Name: "bare-amount-last", Pattern: regexp.MustCompile(`([\d.,]+)\s*EUR`), Select: SelectLast},
			},
			PayDate: genericDateRules(),
		},
	}
}
