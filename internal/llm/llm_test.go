package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/llm"
)

func chunks(parts []string, tail error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
		if tail != nil {
			yield("", tail)
		}
	}
}

func drain(ch <-chan domain.StreamEvent) []domain.StreamEvent {
	var out []domain.StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestPumpDeliversInOrderThenDone(t *testing.T) {
	t.Parallel()

	events := drain(llm.Pump(t.Context(), chunks([]string{"a", "", "b", "c"}, nil)))
	require.Len(t, events, 4)
	assert.Equal(t, "a", events[0].Content)
	assert.Equal(t, "b", events[1].Content)
	assert.Equal(t, "c", events[2].Content)
	assert.True(t, events[3].Done)
}

func TestPumpTerminalError(t *testing.T) {
	t.Parallel()

	events := drain(llm.Pump(t.Context(), chunks([]string{"partial"}, errors.New("boom"))))
	require.Len(t, events, 2)
	assert.Equal(t, "partial", events[0].Content)
	require.Error(t, events[1].Err)
	assert.ErrorIs(t, events[1].Err, domain.ErrGenerationFailed)
	assert.False(t, events[1].Done)
}

func TestPumpStopsOnCancel(t *testing.T) {
	t.Parallel()

	var produced atomic.Int32
	seq := func(yield func(string, error) bool) {
		for i := 0; ; i++ {
			produced.Add(1)
			if !yield(fmt.Sprint(i), nil) {
				return
			}
		}
	}
	ctx, cancel := context.WithCancel(t.Context())
	ch := llm.Pump(ctx, seq)
	<-ch
	<-ch
	cancel()
	time.Sleep(50 * time.Millisecond)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				assert.Less(t, produced.Load(), int32(10))
				return
			}
		case <-deadline:
			t.Fatal("producer did not stop after cancel")
		}
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	s, err := llm.Collect(chunks([]string{"he", "llo"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = llm.Collect(chunks([]string{"x"}, errors.New("bad")))
	require.Error(t, err)
}

func openAIServer(t *testing.T, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		assert.NoError(t, json.Unmarshal(body, &req))
		*seen = req

		if stream, _ := req["stream"].(bool); stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, c := range []string{"Reliance ", "looks ", "stable."} {
				fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Hold. "}}]}`)
	}))
}

func TestOpenAIStream(t *testing.T) {
	t.Parallel()

	var seen map[string]any
	srv := openAIServer(t, &seen)
	defer srv.Close()

	gen, err := llm.NewOpenAI(llm.OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	cfg := domain.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 1000}
	text, err := llm.Collect(gen.Stream(t.Context(), "prompt", "system", cfg))
	require.NoError(t, err)
	assert.Equal(t, "Reliance looks stable.", text)

	assert.InDelta(t, 0.7, seen["temperature"], 0.0001)
	assert.EqualValues(t, 1000, seen["max_tokens"])
	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIGenerateOnce(t *testing.T) {
	t.Parallel()

	var seen map[string]any
	srv := openAIServer(t, &seen)
	defer srv.Close()

	gen, err := llm.NewOpenAI(llm.OpenAIConfig{APIKey: "k", Model: "m", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)
	text, err := gen.GenerateOnce(t.Context(), "prompt", "", domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, "Hold.", text)
	assert.Len(t, seen["messages"].([]any), 1)
}

func TestOpenAIRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := llm.NewOpenAI(llm.OpenAIConfig{})
	require.Error(t, err)
}

func TestGeminiStreamAndGenerate(t *testing.T) {
	t.Parallel()

	var gotConfig atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotConfig.Store(string(body))
		candidate := func(text string) string {
			return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
		}
		if strings.Contains(r.URL.Path, ":streamGenerateContent") {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprintf(w, "data: %s\n\n", candidate("TCS "))
			fmt.Fprintf(w, "data: %s\n\n", candidate("is steady."))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, candidate("Buy on dips."))
	}))
	defer srv.Close()

	gen, err := llm.NewGemini(t.Context(), llm.GeminiConfig{
		APIKey: "k", Model: "gemini-1.5-pro", BaseURL: srv.URL + "/", APIVersion: "v1beta",
	})
	require.NoError(t, err)

	cfg := domain.GenerationConfig{Temperature: 0.4, TopP: 0.95, TopK: 40, MaxOutputTokens: 2048}
	text, err := llm.Collect(gen.Stream(t.Context(), "prompt", "You are AIvestor", cfg))
	require.NoError(t, err)
	assert.Equal(t, "TCS is steady.", text)

	body := gotConfig.Load().(string)
	assert.Contains(t, body, `"maxOutputTokens":2048`)
	assert.Contains(t, body, "You are AIvestor")

	once, err := gen.GenerateOnce(t.Context(), "prompt", "", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Buy on dips.", once)
}
