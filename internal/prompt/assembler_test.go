package prompt_test

import (
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/prompt"
)

func reliance() domain.Quote {
	return domain.Quote{
		Symbol:        "RELIANCE.NS",
		Price:         null.FloatFrom(2470.75),
		PreviousClose: null.FloatFrom(2465.00),
		Change:        null.FloatFrom(5.75),
		ChangePercent: null.FloatFrom(0.2333),
		Currency:      "INR",
	}
}

func TestRenderBlocks(t *testing.T) {
	t.Parallel()

	rec := []domain.RecognizedStock{{Name: "Reliance", Symbol: "RELIANCE.NS"}}
	prefs := domain.Preferences{
		{Name: "riskTolerance", Values: []string{"moderate"}},
		{Name: "sectors", Values: []string{"Energy", "IT"}},
		{Name: "blank"},
	}
	p := prompt.Assemble("How is Reliance doing?", rec, []domain.Quote{reliance()}, nil, prefs)
	out := prompt.Render(p, "")

	assert.True(t, strings.HasPrefix(out, "Stock Price Information:\nCurrent Reliance stock price: ₹2470.75 (change +5.75, +0.23%)\n"), out)
	assert.Contains(t, out, "\nUser query: How is Reliance doing?\n")
	assert.Contains(t, out, "User preferences:\n- riskTolerance: moderate\n- sectors: Energy, IT\n")
	assert.NotContains(t, out, "blank")
	assert.NotContains(t, out, "Latest News")
	assert.NotContains(t, out, "unavailable")
}

func TestRenderUnavailableNote(t *testing.T) {
	t.Parallel()

	rec := []domain.RecognizedStock{
		{Name: "Reliance", Symbol: "RELIANCE.NS"},
		{Name: "Zomato", Symbol: "ZOMATO.NS"},
	}
	p := prompt.Assemble("Reliance or Zomato?", rec, []domain.Quote{reliance()}, nil, nil)
	out := prompt.Render(p, "")

	assert.Contains(t, out, "Note: Real-time stock price data for Zomato is temporarily unavailable")
	assert.Equal(t, 1, strings.Count(out, "temporarily unavailable"))
	require.Len(t, prompt.Missing(p), 1)
}

func TestRenderNewsCapped(t *testing.T) {
	t.Parallel()

	news := []domain.NewsItem{
		{Title: "A", Summary: "first"},
		{Title: "B"},
		{Title: "C", Summary: "third"},
		{Title: "D", Summary: "dropped"},
	}
	p := prompt.Assemble("market?", nil, nil, news, nil)
	require.Len(t, p.News, prompt.MaxNewsItems)

	out := prompt.Render(p, "RBI holds rates")
	assert.Contains(t, out, "\nLatest News:\n- A: first\n- B\n- C: third\nRBI holds rates\n")
	assert.NotContains(t, out, "dropped")
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	rec := []domain.RecognizedStock{{Name: "Reliance", Symbol: "RELIANCE.NS"}}
	p := prompt.Assemble("x", rec, []domain.Quote{reliance()}, nil, domain.Preferences{{Name: "a", Values: []string{"b"}}})
	assert.Equal(t, prompt.Render(p, ""), prompt.Render(p, ""))
}

func TestAssembleOrdersQuotesByRecognition(t *testing.T) {
	t.Parallel()

	tcs := domain.Quote{Symbol: "TCS.NS", Price: null.FloatFrom(3500)}
	rec := []domain.RecognizedStock{{Name: "TCS", Symbol: "TCS.NS"}, {Name: "Reliance", Symbol: "RELIANCE.NS"}}
	p := prompt.Assemble("x", rec, []domain.Quote{reliance(), tcs}, nil, nil)

	require.Len(t, p.Quotes, 2)
	assert.Equal(t, domain.TickerSymbol("TCS.NS"), p.Quotes[0].Symbol)
	assert.Equal(t, "TCS", p.Quotes[0].DisplayName)
}

func TestAssemblePrefersRecognizedName(t *testing.T) {
	t.Parallel()

	rel := reliance()
	rel.DisplayName = "RELIANCE INDUSTRIES LTD"
	hdfc := domain.Quote{Symbol: "HDFCBANK.NS", DisplayName: "HDFC BANK LTD", Price: null.FloatFrom(1650.5), Currency: "INR"}
	rec := []domain.RecognizedStock{{Name: "HDFC Bank", Symbol: "HDFCBANK.NS"}, {Name: "Reliance", Symbol: "RELIANCE.NS"}}

	out := prompt.Render(prompt.Assemble("HDFC Bank vs Reliance", rec, []domain.Quote{rel, hdfc}, nil, nil), "")
	assert.Contains(t, out, "Current HDFC Bank stock price: ₹1650.50\n")
	assert.Contains(t, out, "Current Reliance stock price: ₹2470.75")
	assert.NotContains(t, out, "LTD")
}

func TestQuoteLineWithoutChange(t *testing.T) {
	t.Parallel()

	q := domain.Quote{Symbol: "ITC.NS", DisplayName: "ITC", Price: null.FloatFrom(410), Change: null.FloatFrom(0)}
	assert.Equal(t, "Current ITC stock price: ₹410.00 (change +0.00)", prompt.QuoteLine(q))
}
