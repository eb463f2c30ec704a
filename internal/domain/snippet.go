package domain

import "time"

// Snippet is a short piece of text plus source URL returned by a web search.
// Snippets are ephemeral: produced by the search gateway and consumed
// immediately by the evaluation scheduler.
type Snippet struct {
	URL         string
	Text        string
	Title       string
	PublishedAt *time.Time
}

// SentimentLabel is the categorical half of a sentiment judgment.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Sentiment combines a categorical label with a numeric score.
type Sentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// Entity is a named entity surfaced by the evaluation.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Evaluation is the structured LLM-derived judgment about a snippet.
type Evaluation struct {
	URL            string    `json:"url"`
	Summary        string    `json:"summary"`
	Headline       string    `json:"headline"`
	Sentiment      Sentiment `json:"sentiment"`
	Entities       []Entity  `json:"entities"`
	RelevanceScore int       `json:"relevance_score"`
	Categories     []string  `json:"categories"`
}

// ScoredSnippet pairs a snippet with its evaluation for ranking.
type ScoredSnippet struct {
	Snippet    Snippet
	Evaluation Evaluation
}

// RankedLink is one entry of an output bucket.
type RankedLink struct {
	URL      string `json:"url"`
	Headline string `json:"headline"`
}

// Selection is the ranked, bucketed output of a run.
type Selection struct {
	BrandSpecific      []RankedLink
	BrandRelevant      []RankedLink
	ContentSummaries   []string
	BrandSystemPrompt  string
	MarketSystemPrompt string
}

// ReportPayload is handed to the report dispatcher after a run completes.
type ReportPayload struct {
	RunID              string
	BrandDisplayName   string
	BrandSpecific      []RankedLink
	BrandRelevant      []RankedLink
	BrandSystemPrompt  string
	MarketSystemPrompt string
	UserPrompt         string
	SearchTerms        []string
	NumSearchCalls     int
	SearchTimes        []time.Time
	ContentSummaries   []string
}
