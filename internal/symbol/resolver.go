// Package symbol recognizes stock and index mentions in free text and maps
// them to canonical exchange-qualified ticker symbols. It performs no I/O.
package symbol

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Match is one recognized mention.
type Match struct {
	Name   string              `json:"name"`
	Symbol domain.TickerSymbol `json:"symbol"`
}

type alias struct {
	key  string // lower case
	base string // symbol without suffix; index entries carry the full ^ symbol
	name string // display name, derived from key when empty
	word bool   // must match on word boundaries
}

// aliases is ordered: more specific keys come before the shorter keys they
// contain, because a matched span is consumed.
var aliases = []alias{
	{key: "zomato", base: "ZOMATO"},
	{key: "reliance", base: "RELIANCE"},
	{key: "tcs", base: "TCS", name: "TCS", word: true},
	{key: "tata consultancy", base: "TCS", name: "TCS"},
	{key: "infosys", base: "INFY"},
	{key: "hdfc", base: "HDFCBANK", name: "HDFC Bank"},
	{key: "state bank", base: "SBIN", name: "SBI"},
	{key: "sbi", base: "SBIN", name: "SBI", word: true},
	{key: "icici", base: "ICICIBANK", name: "ICICI Bank"},
	{key: "axis", base: "AXISBANK", name: "Axis Bank", word: true},
	{key: "tata steel", base: "TATASTEEL"},
	{key: "tata motors", base: "TATAMOTORS"},
	{key: "tata", base: "TATAMOTORS", name: "Tata Motors", word: true},
	{key: "adani", base: "ADANIPORTS", name: "Adani Ports"},
	{key: "bajaj", base: "BAJFINANCE", name: "Bajaj Finance"},
	{key: "wipro", base: "WIPRO"},
	{key: "hindustan unilever", base: "HINDUNILVR", name: "HUL"},
	{key: "hul", base: "HINDUNILVR", name: "HUL", word: true},
	{key: "itc", base: "ITC", name: "ITC", word: true},
	{key: "airtel", base: "BHARTIARTL", name: "Bharti Airtel"},
	{key: "kotak", base: "KOTAKBANK", name: "Kotak Mahindra Bank"},
	{key: "larsen", base: "LT", name: "Larsen & Toubro"},
	{key: "l&t", base: "LT", name: "L&T", word: true},
	{key: "asian paints", base: "ASIANPAINT"},
	{key: "maruti", base: "MARUTI"},
	{key: "titan", base: "TITAN", word: true},
	{key: "apple", base: "AAPL", word: true},
	{key: "microsoft", base: "MSFT"},
	{key: "amazon", base: "AMZN"},
	{key: "google", base: "GOOGL"},
	{key: "netflix", base: "NFLX"},
	{key: "tesla", base: "TSLA"},
	{key: "nvidia", base: "NVDA"},
	{key: "facebook", base: "META", name: "Meta"},
	{key: "meta", base: "META", word: true},
}

var indices = []alias{
	{key: "banknifty", base: "^NSEBANK", name: "NIFTY Bank", word: true},
	{key: "niftybank", base: "^NSEBANK", name: "NIFTY Bank", word: true},
	{key: "bank nifty", base: "^NSEBANK", name: "NIFTY Bank", word: true},
	{key: "nifty bank", base: "^NSEBANK", name: "NIFTY Bank", word: true},
	{key: "finnifty", base: "^CNXFIN", name: "NIFTY Financial Services", word: true},
	{key: "nifty50", base: "^NSEI", name: "NIFTY 50", word: true},
	{key: "nifty 50", base: "^NSEI", name: "NIFTY 50", word: true},
	{key: "nifty", base: "^NSEI", name: "NIFTY 50", word: true},
	{key: "sensex", base: "^BSESN", name: "SENSEX", word: true},
}

// tokens are bare NSE symbols recognized directly in text.
var tokens = []string{
	"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK", "INFY", "SBIN", "BHARTIARTL",
	"ITC", "KOTAKBANK", "HINDUNILVR", "LT", "AXISBANK", "BAJFINANCE",
	"ASIANPAINT", "WIPRO", "TITAN", "TATASTEEL", "MARUTI",
}

var usSymbols = map[string]bool{
	"AAPL": true, "MSFT": true, "AMZN": true, "GOOGL": true, "GOOG": true,
	"NFLX": true, "TSLA": true, "META": true, "NVDA": true,
}

var explicitRe = regexp.MustCompile(`(?i)\b([a-z0-9&-]+)\.(ns|bo)\b`)

var title = cases.Title(language.English)

// Resolver maps free text to symbols. The zero value is not usable; call New.
type Resolver struct {
	names map[string]string // base -> display name
}

// New builds a Resolver over the built-in tables.
func New() *Resolver {
	r := &Resolver{names: make(map[string]string)}
	for _, a := range append(append([]alias{}, aliases...), indices...) {
		if _, ok := r.names[a.base]; !ok {
			r.names[a.base] = displayName(a)
		}
	}
	return r
}

func displayName(a alias) string {
	if a.name != "" {
		return a.name
	}
	return title.String(a.key)
}

// Resolve returns the canonical symbols mentioned in text.
func (r *Resolver) Resolve(text string) []domain.TickerSymbol {
	matches := r.Match(text)
	out := make([]domain.TickerSymbol, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Symbol)
	}
	return out
}

// Match returns every recognized mention with its display name. Explicitly
// exchange-qualified tickers come first, then the alias table in its fixed
// order, then bare symbol tokens. Duplicate symbols are collapsed.
//
// Short or common-word aliases (tata, axis, titan, apple, meta, tcs) and
// tokens of three letters or fewer must stand as whole words; longer
// aliases match anywhere in the text. This intentionally departs from plain
// substring containment so "metadata" or "etcs" do not name a stock.
func (r *Resolver) Match(text string) []Match {
	lower := strings.ToLower(text)
	seen := make(map[domain.TickerSymbol]bool)
	var out []Match
	add := func(name string, sym domain.TickerSymbol) {
		if seen[sym] {
			return
		}
		seen[sym] = true
		out = append(out, Match{Name: name, Symbol: sym})
	}

	for _, loc := range explicitRe.FindAllStringSubmatchIndex(lower, -1) {
		base := strings.ToUpper(lower[loc[2]:loc[3]])
		suffix := "." + strings.ToUpper(lower[loc[4]:loc[5]])
		name, ok := r.names[base]
		if !ok {
			name = base
		}
		add(name, domain.TickerSymbol(base+suffix))
		lower = blank(lower, loc[0], loc[1])
	}

	for _, a := range indices {
		if i := find(lower, a.key, a.word); i >= 0 {
			add(displayName(a), domain.TickerSymbol(a.base))
			lower = blank(lower, i, i+len(a.key))
		}
	}
	for _, a := range aliases {
		if i := find(lower, a.key, a.word); i >= 0 {
			add(displayName(a), canonical(a.base))
			lower = blank(lower, i, i+len(a.key))
		}
	}
	for _, tok := range tokens {
		key := strings.ToLower(tok)
		if find(lower, key, len(key) <= 3) >= 0 {
			name, ok := r.names[tok]
			if !ok {
				name = tok
			}
			add(name, canonical(tok))
		}
	}
	return out
}

// Canonicalize turns a single user-supplied identifier (ticker, index name
// or company alias) into its canonical symbol.
func (r *Resolver) Canonicalize(raw string) (domain.TickerSymbol, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("symbol: empty identifier: %w", domain.ErrValidation)
	}
	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, domain.IndexPrefix) ||
		strings.HasSuffix(upper, domain.SuffixNSE) || strings.HasSuffix(upper, domain.SuffixBSE) {
		return domain.TickerSymbol(upper), nil
	}
	lower := strings.ToLower(s)
	for _, a := range indices {
		if lower == a.key {
			return domain.TickerSymbol(a.base), nil
		}
	}
	for _, a := range aliases {
		if lower == a.key {
			return canonical(a.base), nil
		}
	}
	return canonical(upper), nil
}

// Name returns the display name for a symbol, or its base when unknown.
func (r *Resolver) Name(sym domain.TickerSymbol) string {
	if sym.IsIndex() {
		if n, ok := r.names[string(sym)]; ok {
			return n
		}
	}
	if n, ok := r.names[sym.Base()]; ok {
		return n
	}
	return sym.Base()
}

// Search returns the symbols whose alias or ticker contains query.
func (r *Resolver) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	seen := make(map[domain.TickerSymbol]bool)
	var out []Match
	for _, a := range aliases {
		sym := canonical(a.base)
		if seen[sym] {
			continue
		}
		if strings.Contains(a.key, q) || strings.Contains(strings.ToLower(a.base), q) {
			seen[sym] = true
			out = append(out, Match{Name: displayName(a), Symbol: sym})
		}
	}
	return out
}

func canonical(base string) domain.TickerSymbol {
	if strings.HasPrefix(base, domain.IndexPrefix) || usSymbols[base] {
		return domain.TickerSymbol(base)
	}
	return domain.TickerSymbol(base + domain.SuffixNSE)
}

// find returns the byte offset of key in s, or -1. With word set the match
// must not be adjacent to a letter or digit on either side.
func find(s, key string, word bool) int {
	from := 0
	for {
		i := strings.Index(s[from:], key)
		if i < 0 {
			return -1
		}
		i += from
		if !word || (boundary(s, i-1) && boundary(s, i+len(key))) {
			return i
		}
		from = i + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}

func blank(s string, from, to int) string {
	return s[:from] + strings.Repeat(" ", to-from) + s[to:]
}
