package llm

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// GeminiConfig configures the Gemini backend. BaseURL is optional and only
// needed to point at a proxy or test server.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
}

// Gemini generates text with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm: gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL, APIVersion: cfg.APIVersion}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// Stream implements domain.Generator.
func (g *Gemini) Stream(ctx context.Context, prompt, system string, cfg domain.GenerationConfig) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), g.requestConfig(system, cfg)) {
			if err != nil {
				yield("", fmt.Errorf("llm: gemini stream: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

// GenerateOnce implements domain.Generator.
func (g *Gemini) GenerateOnce(ctx context.Context, prompt, system string, cfg domain.GenerationConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.requestConfig(system, cfg))
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("llm: gemini generate: empty response")
	}
	return text, nil
}

func (g *Gemini) requestConfig(system string, cfg domain.GenerationConfig) *genai.GenerateContentConfig {
	rc := &genai.GenerateContentConfig{MaxOutputTokens: cfg.MaxOutputTokens}
	if system != "" {
		rc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if cfg.Temperature != 0 {
		rc.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.TopP != 0 {
		rc.TopP = genai.Ptr(cfg.TopP)
	}
	if cfg.TopK != 0 {
		rc.TopK = genai.Ptr(cfg.TopK)
	}
	return rc
}
