// Package repair removes bracketed placeholder instructions such as
// "[insert Zomato stock price]" that generators sometimes emit instead of
// real figures.
package repair

import (
	"strings"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Neutral phrases used when a placeholder names no known stock.
const (
	CitePhrase    = "recent data"
	GenericPhrase = "the latest available data"
)

var keywords = []string{"insert", "cite", "placeholder"}

// Fact is a known price that can stand in for a placeholder.
type Fact struct {
	Name    string
	Aliases []string
	Symbol  domain.TickerSymbol
	Price   string
}

// FactsFromQuotes builds facts from the quotes used to build the prompt.
// The names under which the stocks were recognized become aliases, so a
// placeholder naming "HDFC Bank" matches a quote listed as "HDFC BANK LTD".
// Quotes without a price are skipped.
func FactsFromQuotes(quotes []domain.Quote, recognized ...domain.RecognizedStock) []Fact {
	facts := make([]Fact, 0, len(quotes))
	for _, q := range quotes {
		if !q.Price.Valid {
			continue
		}
		f := Fact{Name: q.Label(), Symbol: q.Symbol, Price: q.FormattedPrice()}
		for _, r := range recognized {
			if r.Symbol == q.Symbol && r.Name != "" && !strings.EqualFold(r.Name, f.Name) {
				f.Aliases = append(f.Aliases, r.Name)
			}
		}
		facts = append(facts, f)
	}
	return facts
}

func (f Fact) names() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// NeedsRepair reports whether text contains a placeholder opening.
func NeedsRepair(text string) bool {
	lower := strings.ToLower(text)
	for i := strings.IndexByte(lower, '['); i >= 0; {
		if placeholderAt(lower, i) {
			return true
		}
		next := strings.IndexByte(lower[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

// Repair rewrites every complete placeholder span in text. A span naming a
// stock in facts becomes that stock's formatted price; any other span
// becomes a neutral phrase. An opening bracket with no closing bracket is
// left untouched. Text without placeholders is returned unchanged.
func Repair(text string, facts []Fact) string {
	if !NeedsRepair(text) {
		return text
	}
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for pos < len(text) {
		i := strings.IndexByte(lower[pos:], '[')
		if i < 0 {
			break
		}
		start := pos + i
		if !placeholderAt(lower, start) {
			b.WriteString(text[pos : start+1])
			pos = start + 1
			continue
		}
		j := strings.IndexByte(lower[start:], ']')
		if j < 0 {
			break
		}
		end := start + j
		b.WriteString(text[pos:start])
		b.WriteString(replacement(lower[start+1:end], facts))
		pos = end + 1
	}
	b.WriteString(text[pos:])
	return b.String()
}

func placeholderAt(lower string, i int) bool {
	rest := strings.TrimLeft(lower[i+1:], " \t")
	for _, kw := range keywords {
		if strings.HasPrefix(rest, kw) {
			return true
		}
	}
	return false
}

func replacement(span string, facts []Fact) string {
	for _, f := range facts {
		for _, name := range f.names() {
			if name != "" && strings.Contains(span, strings.ToLower(name)) {
				return f.Price
			}
		}
		if base := strings.ToLower(f.Symbol.Base()); base != "" && containsWord(span, base) {
			return f.Price
		}
	}
	if strings.HasPrefix(strings.TrimLeft(span, " \t"), "cite") {
		return CitePhrase
	}
	return GenericPhrase
}

func containsWord(s, word string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		i += from
		before := i == 0 || !isAlnum(s[i-1])
		after := i+len(word) >= len(s) || !isAlnum(s[i+len(word)])
		if before && after {
			return true
		}
		from = i + 1
	}
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
