// Package newsapi fetches headlines from NewsAPI.org.
package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/httpx"
)

const (
	DefaultBaseURL = "https://newsapi.org/v2"
	sourceName     = "newsapi"
)

// Client implements domain.NewsSource.
type Client struct {
	baseURL    string
	apiKey     string
	country    string
	httpClient *http.Client
}

// NewClient creates a NewsAPI client. country selects the market for
// general business headlines ("in" when empty).
func NewClient(apiKey, baseURL, country string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if country == "" {
		country = "in"
	}
	if httpClient == nil {
		httpClient = httpx.New(0)
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, country: country, httpClient: httpClient}
}

// Name implements domain.NewsSource.
func (c *Client) Name() string { return sourceName }

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// News implements domain.NewsSource. An empty query returns the country's
// top business headlines; otherwise articles matching query, newest first.
func (c *Client) News(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("apiKey", c.apiKey)

	endpoint := "/everything"
	if query == "" {
		endpoint = "/top-headlines"
		params.Set("country", c.country)
		params.Set("category", "business")
	} else {
		params.Set("q", query)
		params.Set("language", "en")
		params.Set("sortBy", "publishedAt")
	}

	var resp struct {
		Status   string    `json:"status"`
		Message  string    `json:"message"`
		Articles []article `json:"articles"`
	}
	if err := httpx.GetJSON(ctx, c.httpClient, sourceName, c.baseURL+endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %s: %w", endpoint, err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s: %s: %w", endpoint, resp.Message, domain.ErrUpstreamUnavailable)
	}

	out := make([]domain.NewsItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		out = append(out, domain.NewsItem{
			Title:       a.Title,
			Summary:     a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}
