package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BrandPulse/internal/config"
	"BrandPulse/internal/domain"
)

func testSender() *Sender {
	return NewSender(config.EmailConfig{
		Server:   "smtp.example.com",
		Port:     587,
		Username: "bot",
		Password: "secret",
		Sender:   "bot@example.com",
		Receiver: "team@example.com",
	}, "http://localhost:8080/", nil)
}

func testPayload() domain.ReportPayload {
	return domain.ReportPayload{
		RunID:              "run-1",
		BrandDisplayName:   "Acme",
		BrandSpecific:      []domain.RankedLink{{URL: "https://news.example/a", Headline: "Acme wins"}},
		BrandRelevant:      []domain.RankedLink{{URL: "https://news.example/b", Headline: "Industry shift"}},
		BrandSystemPrompt:  "brand prompt",
		MarketSystemPrompt: "market prompt",
		UserPrompt:         strings.Repeat("x", 400),
		SearchTerms:        []string{"acme news"},
		NumSearchCalls:     1,
		SearchTimes:        []time.Time{time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)},
		ContentSummaries:   []string{"a <b>summary</b>"},
	}
}

func TestBuildHTMLIncludesLinksAndFeedback(t *testing.T) {
	body := testSender().buildHTML(testPayload(), false)

	require.Contains(t, body, "https://news.example/a")
	require.Contains(t, body, "Acme wins")
	require.Contains(t, body, "http://localhost:8080/feedback?run_id=run-1&amp;feedback=yes")
	require.Contains(t, body, "http://localhost:8080/feedback?run_id=run-1&amp;feedback=no")

	// Feedback links only accompany brand-specific entries.
	require.Equal(t, 1, strings.Count(body, "feedback=yes"))
}

func TestBuildHTMLEscapesAndTruncates(t *testing.T) {
	body := testSender().buildHTML(testPayload(), false)

	require.Contains(t, body, "a &lt;b&gt;summary&lt;/b&gt;")
	require.NotContains(t, body, "a <b>summary</b>")
	require.Contains(t, body, strings.Repeat("x", 300)+"...")
	require.NotContains(t, body, strings.Repeat("x", 301))
}

func TestBuildHTMLEscapesLinkURLs(t *testing.T) {
	payload := testPayload()
	payload.BrandRelevant = []domain.RankedLink{
		{URL: "https://news.example/a'onmouseover='x", Headline: "Quoted"},
	}

	body := testSender().buildHTML(payload, false)
	require.Contains(t, body, "https://news.example/a&#39;onmouseover=&#39;x")
	require.NotContains(t, body, "href='https://news.example/a'onmouseover")
}

func TestBuildHTMLMetadataSection(t *testing.T) {
	body := testSender().buildHTML(testPayload(), false)

	require.Contains(t, body, "brand prompt")
	require.Contains(t, body, "market prompt")
	require.Contains(t, body, "acme news")
	require.Contains(t, body, "2026-08-30T09:00:00Z")
	require.Contains(t, body, "<strong>Number of Search Calls:</strong> 1")
}

func TestBuildHTMLNoNews(t *testing.T) {
	body := testSender().buildHTML(domain.ReportPayload{BrandDisplayName: "Acme"}, true)

	require.Contains(t, body, "No brand-specific or brand-relevant news was found for Acme today.")
	require.NotContains(t, body, "feedback")
}

func TestBuildHTMLEmptyBuckets(t *testing.T) {
	payload := testPayload()
	payload.BrandSpecific = nil
	payload.ContentSummaries = nil

	body := testSender().buildHTML(payload, false)
	require.Contains(t, body, "No links found.")
	require.Contains(t, body, "<li>N/A</li>")
}

func TestDispatchSkipsWhenUnconfigured(t *testing.T) {
	sender := NewSender(config.EmailConfig{Port: 587}, "http://localhost:8080", nil)

	err := sender.Dispatch(context.Background(), testPayload())
	require.NoError(t, err)
}

func TestHelpers(t *testing.T) {
	require.Equal(t, "N/A", htmlOr("  "))
	require.Equal(t, "a &amp; b", htmlOr("a & b"))
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab...", truncate("abcdef", 2))
}
