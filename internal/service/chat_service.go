package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/llm"
	"github.com/Sarish05/AIvestor/internal/notify"
	"github.com/Sarish05/AIvestor/internal/prompt"
	"github.com/Sarish05/AIvestor/internal/repair"
	"github.com/Sarish05/AIvestor/internal/symbol"
)

// Sampling presets for the two answer endpoints.
var (
	ChatGeneration = domain.GenerationConfig{
		Temperature:     0.7,
		MaxOutputTokens: 1000,
	}
	GenerateGeneration = domain.GenerationConfig{
		Temperature:     0.4,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 2048,
	}
)

// Quoter fetches quotes for a batch of symbols, omitting failures.
type Quoter interface {
	GetQuotes(ctx context.Context, syms []domain.TickerSymbol) []domain.Quote
}

// Headlines returns recent news, never failing.
type Headlines interface {
	Latest(ctx context.Context, query string) []domain.NewsItem
}

// ChatRequest is one question to answer.
type ChatRequest struct {
	Message      string
	Preferences  domain.Preferences
	SystemPrompt string
	// NewsText is appended verbatim to the news block.
	NewsText string
	// FetchNews adds general market headlines from the news sources.
	FetchNews bool
	Config    domain.GenerationConfig
}

// Prepared is a rendered prompt together with the facts used to repair the
// answer.
type Prepared struct {
	Prompt  string
	System  string
	Payload domain.ContextPayload
	Facts   []repair.Fact
}

// ChatService answers natural-language questions: it recognizes the stocks
// mentioned, gathers their quotes and the news, renders the prompt and runs
// the generator, repairing placeholder spans in the output.
type ChatService struct {
	resolver  *symbol.Resolver
	quotes    Quoter
	news      Headlines
	generator domain.Generator
	alerts    Alerter
	logger    *slog.Logger
}

// NewChatService creates a ChatService. news and alerts may be nil.
func NewChatService(resolver *symbol.Resolver, quotes Quoter, news Headlines, generator domain.Generator, alerts Alerter, logger *slog.Logger) *ChatService {
	if resolver == nil {
		resolver = symbol.New()
	}
	if alerts == nil {
		alerts = nopAlerter{}
	}
	return &ChatService{
		resolver:  resolver,
		quotes:    quotes,
		news:      news,
		generator: generator,
		alerts:    alerts,
		logger:    logger.With(slog.String("component", "chat_service")),
	}
}

// Prepare builds the prompt for req.
func (s *ChatService) Prepare(ctx context.Context, req ChatRequest) Prepared {
	matches := s.resolver.Match(req.Message)
	recognized := make([]domain.RecognizedStock, len(matches))
	syms := make([]domain.TickerSymbol, len(matches))
	for i, m := range matches {
		recognized[i] = domain.RecognizedStock{Name: m.Name, Symbol: m.Symbol}
		syms[i] = m.Symbol
	}

	var quotes []domain.Quote
	if len(syms) > 0 {
		quotes = s.quotes.GetQuotes(ctx, syms)
	}

	var news []domain.NewsItem
	if req.FetchNews && s.news != nil {
		news = s.news.Latest(ctx, "")
	}

	payload := prompt.Assemble(req.Message, recognized, quotes, news, req.Preferences)
	system := req.SystemPrompt
	if system == "" {
		system = prompt.DefaultSystemInstruction
	}

	s.logger.DebugContext(ctx, "prompt prepared",
		slog.Int("recognized", len(recognized)),
		slog.Int("quotes", len(payload.Quotes)),
		slog.Int("news", len(payload.News)),
	)
	return Prepared{
		Prompt:  prompt.Render(payload, req.NewsText),
		System:  system,
		Payload: payload,
		Facts:   repair.FactsFromQuotes(quotes, recognized...),
	}
}

// Stream answers req as a stream of events. The channel carries repaired
// content chunks and ends with exactly one Done or Err event unless ctx is
// cancelled first.
func (s *ChatService) Stream(ctx context.Context, req ChatRequest) <-chan domain.StreamEvent {
	p := s.Prepare(ctx, req)
	seq := s.generator.Stream(ctx, p.Prompt, p.System, req.Config)
	return llm.Pump(ctx, s.observe(ctx, repaired(seq, p.Facts)))
}

// Generate answers req in one piece, repaired.
func (s *ChatService) Generate(ctx context.Context, req ChatRequest) (string, error) {
	p := s.Prepare(ctx, req)
	text, err := s.generator.GenerateOnce(ctx, p.Prompt, p.System, req.Config)
	if err != nil {
		s.reportFailure(ctx, err)
		return "", fmt.Errorf("chat_service: generate: %w: %w", domain.ErrGenerationFailed, err)
	}
	return repair.Repair(text, p.Facts), nil
}

// observe reports the terminal error of seq, if any.
func (s *ChatService) observe(ctx context.Context, seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for chunk, err := range seq {
			if err != nil && ctx.Err() == nil {
				s.reportFailure(ctx, err)
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

func (s *ChatService) reportFailure(ctx context.Context, err error) {
	s.logger.ErrorContext(ctx, "generation failed", slog.String("error", err.Error()))
	if nerr := s.alerts.Notify(ctx, notify.EventGenerationFailed, "Generation failed", err.Error()); nerr != nil {
		s.logger.WarnContext(ctx, "alert failed", slog.String("error", nerr.Error()))
	}
}

// repaired applies placeholder repair across chunk boundaries.
func repaired(seq iter.Seq2[string, error], facts []repair.Fact) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r := repair.NewStreamRepairer(facts, repair.DefaultHoldback)
		for chunk, err := range seq {
			if err != nil {
				if rest := r.Flush(); rest != "" && !yield(rest, nil) {
					return
				}
				yield("", err)
				return
			}
			if out := r.Write(chunk); out != "" && !yield(out, nil) {
				return
			}
		}
		if rest := r.Flush(); rest != "" {
			yield(rest, nil)
		}
	}
}
