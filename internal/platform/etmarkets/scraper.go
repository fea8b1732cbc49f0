// Package etmarkets scrapes market headlines from the Economic Times markets
// news page. It needs no API key and backs up the NewsAPI source.
package etmarkets

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/httpx"
)

const (
	DefaultPageURL = "https://economictimes.indiatimes.com/markets/stocks/news"
	sourceName     = "etmarkets"
)

// Scraper implements domain.NewsSource.
type Scraper struct {
	pageURL    string
	httpClient *http.Client
}

// NewScraper creates a scraper for pageURL (DefaultPageURL when empty).
func NewScraper(pageURL string, httpClient *http.Client) *Scraper {
	if pageURL == "" {
		pageURL = DefaultPageURL
	}
	if httpClient == nil {
		httpClient = httpx.New(0)
	}
	return &Scraper{pageURL: pageURL, httpClient: httpClient}
}

// Name implements domain.NewsSource.
func (s *Scraper) Name() string { return sourceName }

// News implements domain.NewsSource. A non-empty query keeps only stories
// whose headline or summary mentions it.
func (s *Scraper) News(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	if limit <= 0 {
		limit = 10
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("etmarkets: create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	body, err := httpx.Do(s.httpClient, sourceName, req)
	if err != nil {
		return nil, fmt.Errorf("etmarkets: fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("etmarkets: parse: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	base, _ := url.Parse(s.pageURL)
	q := strings.ToLower(strings.TrimSpace(query))

	var out []domain.NewsItem
	doc.Find("div.eachStory").EachWithBreak(func(_ int, story *goquery.Selection) bool {
		title := clean(story.Find("h3").First().Text())
		if title == "" {
			return true
		}
		item := domain.NewsItem{
			Title:   title,
			Summary: clean(story.Find("p").First().Text()),
			Source:  "Economic Times",
		}
		if href, ok := story.Find("a[href]").First().Attr("href"); ok && base != nil {
			if u, err := base.Parse(href); err == nil {
				item.URL = u.String()
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Title+" "+item.Summary), q) {
			return true
		}
		out = append(out, item)
		return len(out) < limit
	})
	return out, nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
