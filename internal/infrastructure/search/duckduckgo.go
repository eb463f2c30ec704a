package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

const defaultEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoTransport executes queries against the DuckDuckGo HTML
// endpoint and extracts result snippets. Transport failures surface as an
// empty result list, never as an error.
type DuckDuckGoTransport struct {
	endpoint   string
	client     *http.Client
	maxResults int
	logger     *slog.Logger
}

var _ ports.SearchTransport = (*DuckDuckGoTransport)(nil)

// NewDuckDuckGoTransport wires an HTTP client; maxResults bounds how many
// snippets one query may yield.
func NewDuckDuckGoTransport(client *http.Client, maxResults int, logger *slog.Logger) *DuckDuckGoTransport {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &DuckDuckGoTransport{
		endpoint:   defaultEndpoint,
		client:     client,
		maxResults: maxResults,
		logger:     logger,
	}
}

// WithEndpoint overrides the search endpoint, used by tests.
func (t *DuckDuckGoTransport) WithEndpoint(endpoint string) *DuckDuckGoTransport {
	t.endpoint = endpoint
	return t
}

// Search returns up to maxResults snippets for the term, in the order the
// engine produced them.
func (t *DuckDuckGoTransport) Search(ctx context.Context, term string) []domain.Snippet {
	doc, err := t.fetchDocument(ctx, term)
	if err != nil {
		t.log().Error("search request failed", "term", term, "error", err)
		return nil
	}

	var snippets []domain.Snippet
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, _ := link.Attr("href")
		href = resolveRedirect(href)
		title := strings.TrimSpace(link.Text())
		text := strings.TrimSpace(sel.Find("a.result__snippet").First().Text())

		if href == "" || !strings.HasPrefix(href, "http") || strings.Contains(href, "duckduckgo.com") {
			return true
		}

		snippets = append(snippets, domain.Snippet{URL: href, Text: text, Title: title})
		return len(snippets) < t.maxResults
	})

	t.log().Debug("search executed", "term", term, "results", len(snippets))
	return snippets
}

func (t *DuckDuckGoTransport) fetchDocument(ctx context.Context, term string) (*goquery.Document, error) {
	pageURL := t.endpoint + "?q=" + url.QueryEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search engine returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// resolveRedirect unwraps DuckDuckGo's uddg redirect links to the real URL.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func (t *DuckDuckGoTransport) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}
