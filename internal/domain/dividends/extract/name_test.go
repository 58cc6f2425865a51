package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_PositionalName(t *testing.T) {
	engine := newTestEngine(t, nil)

	t.Run("line above the ISIN line", func(t *testing.T) {
		doc := NewDocument("Apple Inc.\nUS0378331005\nStücke 10")
		name, ok := engine.positionalName(doc, "US0378331005")
		require.True(t, ok)
		assert.Equal(t, "Apple Inc.", name)
	})

	t.Run("skips noise line directly above", func(t *testing.T) {
		doc := NewDocument("Realty Income\nStücke 25\nUS7561091049")
		name, ok := engine.positionalName(doc, "US7561091049")
		require.True(t, ok)
		assert.Equal(t, "Realty Income", name)
	})

	t.Run("strips trailing amount and currency", func(t *testing.T) {
		doc := NewDocument("POSITION\nMicrosoft Corp. 1.41 USD\nUS5949181045")
		name, ok := engine.positionalName(doc, "US5949181045")
		require.True(t, ok)
		assert.Equal(t, "Microsoft Corp.", name)
	})

	t.Run("skips bare numeric lines", func(t *testing.T) {
		doc := NewDocument("BASF SE\n1.234,56\nDE000BASF111")
		name, ok := engine.positionalName(doc, "DE000BASF111")
		require.True(t, ok)
		assert.Equal(t, "BASF SE", name)
	})

	t.Run("lookback is bounded", func(t *testing.T) {
		// Every line within the lookback window is noise; the strategy
		// must give up instead of walking further up the page.
		doc := NewDocument(strings.Join([]string{
			"Vanguard FTSE All-World",
			"POSITION",
			"Stücke 5",
			"Nominale 100",
			"Ex-Datum 01.03.2024",
			"99",
			"IE00B3RBWM25",
		}, "\n"))
		engine := newTestEngine(t, func(o *Options) { o.NameLookback = 3 })
		_, ok := engine.positionalName(doc, "IE00B3RBWM25")
		assert.False(t, ok)
	})

	t.Run("isin not on any line", func(t *testing.T) {
		doc := NewDocument("Apple Inc.\nsomething else")
		_, ok := engine.positionalName(doc, "US0378331005")
		assert.False(t, ok)
	})
}

func TestEngine_ExtractIssuerName_Fallbacks(t *testing.T) {
	t.Run("allow-list when positional fails", func(t *testing.T) {
		// ISIN is the first line, so there is nothing above it.
		doc := NewDocument("US0378331005\nAusschüttung für Apple Inc. Anteile")
		engine := newTestEngine(t, nil)
		name, cand := engine.extractIssuerName(doc, "US0378331005")
		assert.Equal(t, "Apple Inc.", name)
		assert.Equal(t, "keyword-allowlist", cand.Strategy)
	})

	t.Run("sentinel when both strategies fail", func(t *testing.T) {
		doc := NewDocument("US0378331005\nno recognizable issuer here")
		engine := newTestEngine(t, func(o *Options) { o.KnownIssuers = nil })
		name, cand := engine.extractIssuerName(doc, "US0378331005")
		assert.Equal(t, UnknownIssuer, name)
		assert.Equal(t, ConfidenceGuessed, cand.Confidence)
	})

	t.Run("sentinel without an ISIN anchor", func(t *testing.T) {
		doc := NewDocument("Nettobetrag 45,67 EUR")
		engine := newTestEngine(t, func(o *Options) { o.KnownIssuers = nil })
		name, _ := engine.extractIssuerName(doc, UnknownISIN)
		assert.Equal(t, UnknownIssuer, name)
	})
}
