// Package prompt assembles the per-request context bundle and renders it into
// the text sent to the generator.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// MaxNewsItems caps how many headlines are rendered into a prompt.
const MaxNewsItems = 3

// DefaultSystemInstruction is used when the client does not send its own.
const DefaultSystemInstruction = `You are AIvestor, an AI investment assistant for Indian equity markets.
Answer using the stock price information, news and user preferences provided in the prompt.
Quote actual numbers from the data when they are given. When data is unavailable, say so plainly.
NEVER use placeholder text like [insert X] or [cite Y]; write concrete figures or a general statement instead.
Keep answers concise and remind the user that this is not personalized financial advice.`

// Assemble bundles the request inputs. Quotes are reordered to follow the
// recognized order and carry the name the user wrote, not the upstream
// listing name; quotes for symbols that were not recognized are kept at the
// end in their given order.
func Assemble(message string, recognized []domain.RecognizedStock, quotes []domain.Quote, news []domain.NewsItem, prefs domain.Preferences) domain.ContextPayload {
	bySym := make(map[domain.TickerSymbol]domain.Quote, len(quotes))
	for _, q := range quotes {
		bySym[q.Symbol] = q
	}
	ordered := make([]domain.Quote, 0, len(quotes))
	used := make(map[domain.TickerSymbol]bool, len(quotes))
	for _, r := range recognized {
		if q, ok := bySym[r.Symbol]; ok && !used[r.Symbol] {
			if r.Name != "" {
				q.DisplayName = r.Name
			}
			ordered = append(ordered, q)
			used[r.Symbol] = true
		}
	}
	for _, q := range quotes {
		if !used[q.Symbol] {
			ordered = append(ordered, q)
			used[q.Symbol] = true
		}
	}
	if len(news) > MaxNewsItems {
		news = news[:MaxNewsItems]
	}
	return domain.ContextPayload{
		Message:     message,
		Recognized:  recognized,
		Quotes:      ordered,
		News:        news,
		Preferences: prefs,
	}
}

// Missing returns the recognized stocks that have no quote in the payload.
func Missing(p domain.ContextPayload) []domain.RecognizedStock {
	have := make(map[domain.TickerSymbol]bool, len(p.Quotes))
	for _, q := range p.Quotes {
		have[q.Symbol] = true
	}
	var out []domain.RecognizedStock
	for _, r := range p.Recognized {
		if !have[r.Symbol] {
			out = append(out, r)
		}
	}
	return out
}

// Render produces the prompt text. Identical payloads render identically.
// extraNews is client-supplied news text appended verbatim.
func Render(p domain.ContextPayload, extraNews string) string {
	var b strings.Builder

	b.WriteString("Stock Price Information:\n")
	for _, q := range p.Quotes {
		b.WriteString(QuoteLine(q))
		b.WriteByte('\n')
	}
	if missing := Missing(p); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.Name
		}
		fmt.Fprintf(&b, "Note: Real-time stock price data for %s is temporarily unavailable. Analysis will be based on recent trends and fundamentals.\n",
			strings.Join(names, ", "))
	}

	b.WriteString("\nUser query: ")
	b.WriteString(p.Message)
	b.WriteString("\n\nUser preferences:\n")
	for _, pref := range p.Preferences {
		if len(pref.Values) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", pref.Name, strings.Join(pref.Values, ", "))
	}

	news := strings.TrimSpace(extraNews)
	if len(p.News) > 0 || news != "" {
		b.WriteString("\nLatest News:\n")
		for _, n := range p.News {
			if n.Summary != "" {
				fmt.Fprintf(&b, "- %s: %s\n", n.Title, n.Summary)
			} else {
				fmt.Fprintf(&b, "- %s\n", n.Title)
			}
		}
		if news != "" {
			b.WriteString(news)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// QuoteLine renders one quote, e.g.
// "Current Reliance stock price: ₹2470.75 (change +5.75, +0.23%)".
func QuoteLine(q domain.Quote) string {
	line := fmt.Sprintf("Current %s stock price: %s", q.Label(), q.FormattedPrice())
	if !q.Change.Valid {
		return line
	}
	if q.ChangePercent.Valid {
		return fmt.Sprintf("%s (change %+.2f, %+.2f%%)", line, q.Change.Float64, q.ChangePercent.Float64)
	}
	return fmt.Sprintf("%s (change %+.2f)", line, q.Change.Float64)
}
