package domain

import "strings"

// Exchange suffixes and the index prefix used by the canonical symbol form.
const (
	SuffixNSE   = ".NS"
	SuffixBSE   = ".BO"
	IndexPrefix = "^"
)

// TickerSymbol is an exchange-qualified instrument identifier such as
// "RELIANCE.NS", "500325.BO", "^NSEI" or the bare US ticker "AAPL".
type TickerSymbol string

func (s TickerSymbol) String() string { return string(s) }

// IsIndex reports whether the symbol names a market index.
func (s TickerSymbol) IsIndex() bool { return strings.HasPrefix(string(s), IndexPrefix) }

// IsIndian reports whether the symbol carries an NSE or BSE suffix.
func (s TickerSymbol) IsIndian() bool {
	return strings.HasSuffix(string(s), SuffixNSE) || strings.HasSuffix(string(s), SuffixBSE)
}

// Exchange returns "NSE", "BSE", "INDEX" or "US".
func (s TickerSymbol) Exchange() string {
	switch {
	case s.IsIndex():
		return "INDEX"
	case strings.HasSuffix(string(s), SuffixBSE):
		return "BSE"
	case strings.HasSuffix(string(s), SuffixNSE):
		return "NSE"
	default:
		return "US"
	}
}

// Base strips the exchange suffix and index prefix: "RELIANCE.NS" -> "RELIANCE".
func (s TickerSymbol) Base() string {
	b := strings.TrimPrefix(string(s), IndexPrefix)
	b = strings.TrimSuffix(b, SuffixNSE)
	return strings.TrimSuffix(b, SuffixBSE)
}

// Currency is the quote currency implied by the exchange.
func (s TickerSymbol) Currency() string {
	if s.Exchange() == "US" {
		return "USD"
	}
	return "INR"
}
