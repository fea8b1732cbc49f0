package repair_test

import (
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/repair"
)

var zomato = []repair.Fact{{Name: "Zomato", Symbol: "ZOMATO.NS", Price: "₹182.40"}}

func TestRepairKnownStock(t *testing.T) {
	t.Parallel()

	out := repair.Repair("Zomato trades at [insert Zomato stock price] today.", zomato)
	assert.Equal(t, "Zomato trades at ₹182.40 today.", out)
	assert.NotContains(t, out, "[")
	assert.NotContains(t, out, "]")
}

func TestRepairBySymbol(t *testing.T) {
	t.Parallel()

	out := repair.Repair("Price: [Insert ZOMATO current price].", zomato)
	assert.Equal(t, "Price: ₹182.40.", out)
}

func TestRepairNeutralPhrases(t *testing.T) {
	t.Parallel()

	out := repair.Repair("[cite specific data points] suggests growth; see [insert analyst target].", zomato)
	assert.Equal(t, repair.CitePhrase+" suggests growth; see "+repair.GenericPhrase+".", out)

	out = repair.Repair("Value: [placeholder]", nil)
	assert.Equal(t, "Value: "+repair.GenericPhrase, out)
}

func TestRepairLeavesOtherBrackets(t *testing.T) {
	t.Parallel()

	in := "See [NSE website](https://nseindia.com) and [1] for details."
	assert.Equal(t, in, repair.Repair(in, zomato))
	assert.False(t, repair.NeedsRepair(in))
}

func TestRepairUnterminated(t *testing.T) {
	t.Parallel()

	in := "The price is [insert Zomato stock price"
	assert.Equal(t, in, repair.Repair(in, zomato))

	in = "[insert x] then [insert Zomato"
	assert.Equal(t, repair.GenericPhrase+" then [insert Zomato", repair.Repair(in, zomato))
}

func TestRepairEdgeInputs(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "[", "]", "[]", "[[", "[insert", "[ insert]", "]]][[["} {
		require.NotPanics(t, func() { repair.Repair(in, zomato) }, in)
	}
	assert.Equal(t, repair.GenericPhrase, repair.Repair("[ insert]", nil))
}

func TestFactsFromQuotes(t *testing.T) {
	t.Parallel()

	facts := repair.FactsFromQuotes([]domain.Quote{
		{Symbol: "ZOMATO.NS", DisplayName: "Zomato", Price: null.FloatFrom(182.4), Currency: "INR"},
		{Symbol: "TCS.NS"},
	})
	require.Len(t, facts, 1)
	assert.Equal(t, repair.Fact{Name: "Zomato", Symbol: "ZOMATO.NS", Price: "₹182.40"}, facts[0])
}

func TestFactsCarryRecognizedNames(t *testing.T) {
	t.Parallel()

	quotes := []domain.Quote{{Symbol: "HDFCBANK.NS", DisplayName: "HDFC BANK LTD", Price: null.FloatFrom(1650.5), Currency: "INR"}}
	facts := repair.FactsFromQuotes(quotes, domain.RecognizedStock{Name: "HDFC Bank", Symbol: "HDFCBANK.NS"})
	require.Len(t, facts, 1)
	assert.Equal(t, []string{"HDFC Bank"}, facts[0].Aliases)

	assert.Equal(t, "HDFC Bank is at ₹1650.50.", repair.Repair("HDFC Bank is at [insert HDFC Bank stock price].", facts))
	assert.Equal(t, "₹1650.50", repair.Repair("[insert HDFC BANK LTD price]", facts))
}

func TestStreamRepairerAcrossChunks(t *testing.T) {
	t.Parallel()

	chunks := []string{"Zomato is at [ins", "ert Zomato stock", " price] now. ", "Also [1] ok."}
	s := repair.NewStreamRepairer(zomato, 0)

	var got strings.Builder
	got.WriteString(s.Write(chunks[0]))
	assert.Equal(t, "Zomato is at ", got.String())
	for _, c := range chunks[1:] {
		got.WriteString(s.Write(c))
	}
	got.WriteString(s.Flush())

	assert.Equal(t, "Zomato is at ₹182.40 now. Also [1] ok.", got.String())
}

func TestStreamRepairerHoldbackBound(t *testing.T) {
	t.Parallel()

	s := repair.NewStreamRepairer(nil, 8)
	out := s.Write("a [insert a very long unterminated span")
	assert.Equal(t, "a [insert a very long unterminated span", out)
	assert.Empty(t, s.Flush())
}

func TestStreamRepairerMatchesBatch(t *testing.T) {
	t.Parallel()

	text := "Buy [insert Zomato price] or [cite source]. Done [x]."
	want := repair.Repair(text, zomato)
	for size := 1; size <= len(text); size++ {
		s := repair.NewStreamRepairer(zomato, 0)
		var b strings.Builder
		for i := 0; i < len(text); i += size {
			end := min(i+size, len(text))
			b.WriteString(s.Write(text[i:end]))
		}
		b.WriteString(s.Flush())
		assert.Equal(t, want, b.String(), "chunk size %d", size)
	}
}
