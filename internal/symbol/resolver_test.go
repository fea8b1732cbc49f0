package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/symbol"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	r := symbol.New()
	cases := []struct {
		text string
		want []domain.TickerSymbol
	}{
		{"What do you think about Zomato?", []domain.TickerSymbol{"ZOMATO.NS"}},
		{"Compare TCS and Infosys", []domain.TickerSymbol{"TCS.NS", "INFY.NS"}},
		{"how is the market doing today", nil},
		{"Is NIFTY overbought? What about banknifty", []domain.TickerSymbol{"^NSEBANK", "^NSEI"}},
		{"sensex outlook", []domain.TickerSymbol{"^BSESN"}},
		{"Should I buy Apple or Tesla", []domain.TickerSymbol{"AAPL", "TSLA"}},
		{"Tata Steel vs Tata Motors", []domain.TickerSymbol{"TATASTEEL.NS", "TATAMOTORS.NS"}},
		{"Compare RELIANCE.BO with hdfc", []domain.TickerSymbol{"RELIANCE.BO", "HDFCBANK.NS"}},
		{"Add salt and a switch", nil},
		{"Is LT a buy?", []domain.TickerSymbol{"LT.NS"}},
		{"metals sector", nil},
		{"check the metadata on etcs files", nil},
		{"Reliance reliance RELIANCE", []domain.TickerSymbol{"RELIANCE.NS"}},
	}
	for _, tc := range cases {
		got := r.Resolve(tc.text)
		if len(tc.want) == 0 {
			assert.Empty(t, got, tc.text)
			continue
		}
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	r := symbol.New()
	text := "ITC, Wipro, airtel, kotak and nifty 50"
	first := r.Match(text)
	for range 20 {
		assert.Equal(t, first, r.Match(text))
	}
	require.Len(t, first, 5)
	assert.Equal(t, symbol.Match{Name: "NIFTY 50", Symbol: "^NSEI"}, first[0])
}

func TestMatchDisplayNames(t *testing.T) {
	t.Parallel()

	got := symbol.New().Match("zomato and infosys")
	require.Len(t, got, 2)
	assert.Equal(t, "Zomato", got[0].Name)
	assert.Equal(t, "Infosys", got[1].Name)
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	r := symbol.New()
	cases := map[string]domain.TickerSymbol{
		"reliance":  "RELIANCE.NS",
		"RELIANCE":  "RELIANCE.NS",
		"tcs.bo":    "TCS.BO",
		"^NSEI":     "^NSEI",
		"NIFTY":     "^NSEI",
		"banknifty": "^NSEBANK",
		"infosys":   "INFY.NS",
		"AAPL":      "AAPL",
		" irctc ":   "IRCTC.NS",
	}
	for in, want := range cases {
		got, err := r.Canonicalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := r.Canonicalize("  ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestNameAndSearch(t *testing.T) {
	t.Parallel()

	r := symbol.New()
	assert.Equal(t, "Infosys", r.Name("INFY.NS"))
	assert.Equal(t, "SENSEX", r.Name("^BSESN"))
	assert.Equal(t, "IRCTC", r.Name("IRCTC.NS"))

	found := r.Search("bank")
	var syms []domain.TickerSymbol
	for _, m := range found {
		syms = append(syms, m.Symbol)
	}
	assert.Contains(t, syms, domain.TickerSymbol("HDFCBANK.NS"))
	assert.Contains(t, syms, domain.TickerSymbol("SBIN.NS"))
	assert.Empty(t, r.Search(""))
}
