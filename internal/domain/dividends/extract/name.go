package extract

import (
	"regexp"
	"strings"
)

// trailingAmountPattern strips a "<number> <CCY>" tail from a position
// line, e.g. "Microsoft Corp. 1.41 USD" -> "Microsoft Corp.".
var trailingAmountPattern = regexp.MustCompile(`\s+\d+(?:[.,]\d*)?\s*[A-Z]{3}$`)

var numericOnlyPattern = regexp.MustCompile(`^[\d.,\s]+$`)

// extractIssuerName resolves the issuer name. The positional strategy runs
// first because it generalizes to any issuer; the keyword allow-list only
// recognizes names it was told about and serves as fallback. Both miss ->
// sentinel.
func (e *Engine) extractIssuerName(doc *Document, isin string) (string, Candidate) {
	if isin != UnknownISIN {
		if name, ok := e.positionalName(doc, isin); ok {
			return name, Candidate{Raw: name, Strategy: "positional", Confidence: ConfidenceParsed}
		}
	}

	for _, known := range e.opts.KnownIssuers {
		if strings.Contains(doc.Text(), known) {
			return known, Candidate{Raw: known, Strategy: "keyword-allowlist", Confidence: ConfidenceParsed}
		}
	}

	return UnknownIssuer, Candidate{Raw: UnknownIssuer, Strategy: "sentinel", Confidence: ConfidenceGuessed}
}

// positionalName takes the nearest usable line above the line holding the
// ISIN. Noise lines (position headers, share counts, bare numbers, lines
// shorter than two characters) are skipped; the lookback is bounded so two
// stacked noise lines fail to the sentinel instead of walking up the page.
func (e *Engine) positionalName(doc *Document, isin string) (string, bool) {
	lines := doc.Lines()

	isinLine := -1
	for i, line := range lines {
		if strings.Contains(line, isin) {
			isinLine = i
			break
		}
	}
	if isinLine < 0 {
		return "", false
	}

	for back := 1; back <= e.opts.NameLookback; back++ {
		i := isinLine - back
		if i < 0 {
			break
		}

		candidate := lines[i]
		if e.isNoise(candidate) {
			continue
		}

		candidate = strings.TrimSpace(trailingAmountPattern.ReplaceAllString(candidate, ""))
		if len([]rune(candidate)) < 2 || numericOnlyPattern.MatchString(candidate) {
			continue
		}
		return candidate, true
	}

	return "", false
}

func (e *Engine) isNoise(line string) bool {
	for _, word := range e.opts.NoiseWords {
		if strings.Contains(line, word) {
			return true
		}
	}
	return false
}
