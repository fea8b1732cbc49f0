package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/service"
)

// StreamErrorMessage is the only error text a client sees on a failed stream.
const StreamErrorMessage = "Sorry, I encountered an error while processing your request."

// Answerer answers chat requests.
type Answerer interface {
	Stream(ctx context.Context, req service.ChatRequest) <-chan domain.StreamEvent
	Generate(ctx context.Context, req service.ChatRequest) (string, error)
}

// ChatHandler serves the question-answering endpoints.
type ChatHandler struct {
	chat   Answerer
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat Answerer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logHandler(logger, "chat")}
}

type chatBody struct {
	Message      *string            `json:"message"`
	Preferences  domain.Preferences `json:"preferences"`
	SystemPrompt string             `json:"systemPrompt"`
	NewsData     string             `json:"newsData"`
	Stream       bool               `json:"stream"`
}

func (h *ChatHandler) decode(w http.ResponseWriter, r *http.Request) (chatBody, bool) {
	var body chatBody
	if err := decodeJSON(w, r, &body); err != nil || body.Message == nil || strings.TrimSpace(*body.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return chatBody{}, false
	}
	return body, true
}

// Chat streams an answer enriched with quotes for the stocks mentioned and
// the latest market news.
// POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.stream(w, r, service.ChatRequest{
		Message:     *body.Message,
		Preferences: body.Preferences,
		FetchNews:   true,
		Config:      service.ChatGeneration,
	})
}

// Generate answers with the caller's preferences, system prompt and news
// text, either streamed or as one repaired response.
// POST /api/generate
func (h *ChatHandler) Generate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	req := service.ChatRequest{
		Message:      *body.Message,
		Preferences:  body.Preferences,
		SystemPrompt: body.SystemPrompt,
		NewsText:     body.NewsData,
		Config:       service.GenerateGeneration,
	}
	if body.Stream {
		h.stream(w, r, req)
		return
	}

	text, err := h.chat.Generate(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"response": text,
		"status":   "success",
	})
}

type frame struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// stream forwards every event as a "data: {json}\n\n" frame, flushing after
// each one. A client disconnect cancels the request context, which stops the
// generator.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, req service.ChatRequest) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for ev := range h.chat.Stream(ctx, req) {
		var f frame
		switch {
		case ev.Err != nil:
			h.logger.ErrorContext(ctx, "stream failed", slog.String("error", ev.Err.Error()))
			f.Error = StreamErrorMessage
		case ev.Done:
			f.Done = true
		default:
			f.Content = ev.Content
		}
		if err := writeFrame(w, f); err != nil {
			h.logger.DebugContext(ctx, "client gone", slog.String("error", err.Error()))
			return
		}
		if err := rc.Flush(); err != nil {
			h.logger.DebugContext(ctx, "flush failed", slog.String("error", err.Error()))
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(data)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)
	_, err = w.Write(buf)
	return err
}
