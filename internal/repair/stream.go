package repair

import "strings"

// DefaultHoldback bounds how much text after an unterminated '[' is held
// while waiting for its closing bracket.
const DefaultHoldback = 256

// StreamRepairer applies Repair to a chunked stream. Text is released as
// soon as it cannot be part of an open bracket span.
type StreamRepairer struct {
	facts   []Fact
	max     int
	pending string
}

// NewStreamRepairer returns a repairer that holds at most maxHold bytes.
// A non-positive maxHold selects DefaultHoldback.
func NewStreamRepairer(facts []Fact, maxHold int) *StreamRepairer {
	if maxHold <= 0 {
		maxHold = DefaultHoldback
	}
	return &StreamRepairer{facts: facts, max: maxHold}
}

// Write accepts the next chunk and returns the text that is safe to emit.
// The result may be empty.
func (s *StreamRepairer) Write(chunk string) string {
	s.pending += chunk
	open := openBracket(s.pending)
	if open < 0 {
		out := Repair(s.pending, s.facts)
		s.pending = ""
		return out
	}
	if len(s.pending)-open > s.max {
		// Give up on this bracket; nothing before the next '[' can change.
		next := strings.IndexByte(s.pending[open+1:], '[')
		cut := len(s.pending)
		if next >= 0 {
			cut = open + 1 + next
		}
		out := Repair(s.pending[:cut], s.facts)
		s.pending = s.pending[cut:]
		return out + s.Write("")
	}
	out := Repair(s.pending[:open], s.facts)
	s.pending = s.pending[open:]
	return out
}

// Flush returns whatever is still held. Call once after the last chunk.
func (s *StreamRepairer) Flush() string {
	out := Repair(s.pending, s.facts)
	s.pending = ""
	return out
}

// openBracket returns the index of the first '[' that has no ']' after it,
// or -1.
func openBracket(s string) int {
	last := strings.LastIndexByte(s, '[')
	if last < 0 || strings.IndexByte(s[last:], ']') >= 0 {
		return -1
	}
	first := last
	for i := last - 1; i >= 0; i-- {
		switch s[i] {
		case ']':
			return first
		case '[':
			first = i
		}
	}
	return first
}
