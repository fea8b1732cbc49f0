// Package llm adapts external text-generation services to domain.Generator
// and turns their chunk sequences into event channels.
package llm

import (
	"context"
	"fmt"
	"iter"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Pump drains seq on its own goroutine and delivers chunks on the returned
// channel. The channel is unbuffered, so a slow consumer slows the producer.
// The last event is either Done or Err, after which the channel is closed.
// Cancelling ctx stops the producer from requesting further chunks; no
// terminal event is delivered in that case because nobody is listening.
func Pump(ctx context.Context, seq iter.Seq2[string, error]) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent)
	go func() {
		defer close(ch)
		send := func(ev domain.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for chunk, err := range seq {
			if err != nil {
				send(domain.StreamEvent{Err: fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)})
				return
			}
			if chunk == "" {
				continue
			}
			if !send(domain.StreamEvent{Content: chunk}) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		send(domain.StreamEvent{Done: true})
	}()
	return ch
}

// Collect concatenates a chunk sequence, stopping at the first error.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var out []byte
	for chunk, err := range seq {
		if err != nil {
			return "", err
		}
		out = append(out, chunk...)
	}
	return string(out), nil
}
