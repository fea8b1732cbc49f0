package upstox

import (
	"fmt"
	"strings"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// isinKeys holds the ISIN-based instrument keys the broker expects for NSE
// equities. Symbols missing here fall back to the trading-symbol form, which
// the broker does not resolve for every listing.
var isinKeys = map[string]string{
	"RELIANCE":   "INE002A01018",
	"TCS":        "INE467B01029",
	"HDFCBANK":   "INE040A01034",
	"INFY":       "INE009A01021",
	"HDFC":       "INE001A01036",
	"ICICIBANK":  "INE090A01021",
	"SBIN":       "INE062A01020",
	"BHARTIARTL": "INE397D01024",
	"KOTAKBANK":  "INE237A01028",
	"HINDUNILVR": "INE030A01027",
	"ITC":        "INE154A01025",
	"LT":         "INE018A01030",
	"AXISBANK":   "INE238A01034",
	"BAJFINANCE": "INE296A01024",
	"ASIANPAINT": "INE021A01026",
	"WIPRO":      "INE075A01022",
	"TITAN":      "INE280A01028",
	"TATASTEEL":  "INE081A01012",
	"ADANIPORTS": "INE742F01042",
	"HCLTECH":    "INE860A01027",
	"SUNPHARMA":  "INE044A01036",
	"INDUSINDBK": "INE095A01012",
	"TECHM":      "INE669C01036",
	"HINDALCO":   "INE038A01020",
	"NTPC":       "INE733E01010",
	"BAJAJ-AUTO": "INE917I01010",
	"IRCTC":      "INE335Y01012",
	"ZOMATO":     "INE758T01015",
	"POLICYBZR":  "INE417T01026",
	"NYKAA":      "INE388Y01029",
	"PAYTM":      "INE982J01020",
}

var indexKeys = map[domain.TickerSymbol]string{
	"^NSEI":    "NSE_INDEX|Nifty 50",
	"^NSEBANK": "NSE_INDEX|Nifty Bank",
	"^CNXFIN":  "NSE_INDEX|Nifty Fin Service",
	"^BSESN":   "BSE_INDEX|SENSEX",
}

// InstrumentKey maps a canonical symbol to the broker's instrument key:
// the ISIN form for known NSE equities, otherwise SEGMENT|SYMBOL.
func InstrumentKey(s domain.TickerSymbol) (string, error) {
	if k, ok := indexKeys[s]; ok {
		return k, nil
	}
	switch s.Exchange() {
	case "NSE":
		if isin, ok := isinKeys[s.Base()]; ok {
			return "NSE_EQ|" + isin, nil
		}
		return "NSE_EQ|" + s.Base(), nil
	case "BSE":
		return "BSE_EQ|" + s.Base(), nil
	default:
		return "", fmt.Errorf("upstox: %s: %w", s, domain.ErrNotSupported)
	}
}

// responseKeys lists every key the broker may use for an instrument in a
// quote response: the requested key (with '|' or ':'), and SEGMENT:SYMBOL,
// which the broker returns even when the request named an ISIN.
func responseKeys(s domain.TickerSymbol, instrumentKey string) []string {
	segment, rest, _ := strings.Cut(instrumentKey, "|")
	keys := []string{instrumentKey, segment + ":" + rest}
	if s.Base() != rest {
		keys = append(keys, segment+":"+s.Base())
	}
	return keys
}
