package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NewsItem is a single headline with an optional summary.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// Preference is one named user preference with one or more values.
type Preference struct {
	Name   string
	Values []string
}

// Preferences keeps the order in which the client sent its preferences so
// that the rendered prompt is stable.
type Preferences []Preference

// UnmarshalJSON accepts an object whose values are strings, numbers, bools
// or arrays of those, preserving key order.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("preferences: expected object")
	}
	var out Preferences
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = append(out, Preference{Name: key, Values: preferenceValues(raw)})
	}
	*p = out
	return nil
}

// MarshalJSON writes the preferences back as an ordered object.
func (p Preferences) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pref := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(pref.Name)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(pref.Values)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func preferenceValues(raw json.RawMessage) []string {
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		vals := make([]string, 0, len(list))
		for _, v := range list {
			if s := scalarString(v); s != "" {
				vals = append(vals, s)
			}
		}
		return vals
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if s := scalarString(v); s != "" {
		return []string{s}
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// ContextPayload is the per-request bundle handed to prompt rendering.
type ContextPayload struct {
	Message     string
	Recognized  []RecognizedStock
	Quotes      []Quote
	News        []NewsItem
	Preferences Preferences
}

// RecognizedStock pairs the name found in the user's text with its symbol.
type RecognizedStock struct {
	Name   string
	Symbol TickerSymbol
}
