package extract

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel values for the optional fields. Their absence degrades the fact,
// it never fails the extraction.
const (
	UnknownISIN   = "unknown"
	UnknownIssuer = "unknown issuer"
)

// isinPattern matches a structurally valid ISIN as a whole token: 2
// uppercase letters, 9 uppercase alphanumerics, 1 check digit. The check
// digit is not verified. Case-sensitive.
var isinPattern = regexp.MustCompile(`(?:^|[^0-9A-Za-z])([A-Z]{2}[A-Z0-9]{9}[0-9])(?:[^0-9A-Za-z]|$)`)

// Options configure the extraction engine. Everything heuristic lives here
// rather than in package state, so tests can swap issuer lists and
// separator rules per case.
type Options struct {
	// PeriodIsDecimal selects the reading of a period-only amount such as
	// "1.234 EUR". True reads it as a decimal point, matching the comma
	// convention of the observed statements.
	PeriodIsDecimal bool

	// KnownIssuers is the allow-list for the keyword name strategy, used as
	// fallback when the positional strategy finds nothing.
	KnownIssuers []string

	// NoiseWords disqualify a line as a positional name candidate.
	NoiseWords []string

	// NameLookback bounds how many lines above the ISIN line the positional
	// strategy scans before giving up.
	NameLookback int

	// Now supplies the pay-date fallback; overridable in tests.
	Now func() time.Time
}

// DefaultOptions returns the engine configuration for the observed broker
// statements.
func DefaultOptions() Options {
	return Options{
		PeriodIsDecimal: true,
		KnownIssuers:    []string{"Apple Inc.", "Microsoft Corp.", "Realty Income"},
		NoiseWords:      []string{"Stücke", "Nominale", "POSITION", "Ex-Datum"},
		NameLookback:    4,
		Now:             time.Now,
	}
}

// Extraction is the typed result of one successful run: canonical field
// values plus per-field provenance recording which strategy produced each
// value and whether it was parsed or guessed.
type Extraction struct {
	Amount     decimal.Decimal
	PayDate    string // YYYY-MM-DD
	ISIN       string
	IssuerName string
	Provenance map[Field]Candidate
}

// Engine resolves statement fields using an ordered strategy table per
// issuer template.
type Engine struct {
	templates []Template
	opts      Options
	logger    *slog.Logger
}

// NewEngine creates an extraction engine. Nil templates fall back to
// DefaultTemplates.
func NewEngine(templates []Template, opts Options, logger *slog.Logger) *Engine {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if opts.NameLookback <= 0 {
		opts.NameLookback = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{templates: templates, opts: opts, logger: logger}
}

// Extract runs the full pipeline over one document: template selection,
// per-field strategy resolution, and normalization. The amount is required;
// the other fields degrade to sentinels or an explicit guessed fallback.
func (e *Engine) Extract(doc *Document) (*Extraction, error) {
	tpl := e.templateFor(doc)
	prov := make(map[Field]Candidate, 4)

	amountCand, ok := resolve(tpl.Amount, doc.Text())
	if !ok {
		e.logger.Warn("amount extraction failed", slog.String("template", tpl.Name))
		return nil, ErrAmountNotFound
	}
	amount, err := NormalizeAmount(amountCand.Raw, e.opts.PeriodIsDecimal)
	if err != nil {
		return nil, &NormalizationError{Field: FieldAmount, Raw: amountCand.Raw, Err: err}
	}
	prov[FieldAmount] = amountCand

	var payDate string
	dateCand, ok := resolve(tpl.PayDate, doc.Text())
	if ok {
		payDate, err = NormalizeDate(dateCand.Raw)
		if err != nil {
			return nil, &NormalizationError{Field: FieldPayDate, Raw: dateCand.Raw, Err: err}
		}
	} else {
		// Explicit low-confidence fallback, visible in provenance.
		payDate = e.opts.Now().Format("2006-01-02")
		dateCand = Candidate{Raw: payDate, Strategy: "current-date", Confidence: ConfidenceGuessed}
	}
	prov[FieldPayDate] = dateCand

	isin := UnknownISIN
	isinCand := extractISIN(doc)
	if isinCand.Found() {
		isin = isinCand.Raw
	} else {
		isinCand = Candidate{Raw: UnknownISIN, Strategy: "sentinel", Confidence: ConfidenceGuessed}
	}
	prov[FieldISIN] = isinCand

	name, nameCand := e.extractIssuerName(doc, isin)
	prov[FieldIssuerName] = nameCand

	return &Extraction{
		Amount:     amount,
		PayDate:    payDate,
		ISIN:       isin,
		IssuerName: name,
		Provenance: prov,
	}, nil
}

// templateFor pins the document to the first template whose marker appears
// in the text, falling back to the generic template. Pinning keeps one
// layout's amount from being combined with another layout's heuristics.
func (e *Engine) templateFor(doc *Document) Template {
	var generic Template
	for _, tpl := range e.templates {
		if tpl.Marker == "" {
			generic = tpl
			continue
		}
		if strings.Contains(doc.Text(), tpl.Marker) {
			return tpl
		}
	}
	return generic
}

// resolve walks the rule table in order and returns the first candidate.
// Rule order is the disambiguation precedence: labeled keywords first,
// positional/last-occurrence heuristics next, bare patterns last.
func resolve(rules []Rule, text string) (Candidate, bool) {
	for _, rule := range rules {
		if raw, ok := rule.apply(text); ok {
			return Candidate{Raw: raw, Strategy: rule.Name, Confidence: ConfidenceParsed}, true
		}
	}
	return Candidate{}, false
}

func extractISIN(doc *Document) Candidate {
	m := isinPattern.FindStringSubmatch(doc.Text())
	if m == nil {
		return Candidate{}
	}
	return Candidate{Raw: m[1], Strategy: "isin-structural", Confidence: ConfidenceParsed}
}
