package usecase

import (
	"sort"
	"strings"

	"BrandPulse/internal/domain"
)

// Ranker scores, buckets, sorts, and truncates evaluated snippets for
// reporting.
type Ranker struct {
	minScore int
	maxLinks int
}

// NewRanker applies the relevance threshold and per-bucket link cap.
func NewRanker(minScore, maxLinks int) *Ranker {
	if minScore <= 0 {
		minScore = 60
	}
	if maxLinks <= 0 {
		maxLinks = 10
	}
	return &Ranker{minScore: minScore, maxLinks: maxLinks}
}

// Select drops items below the relevance threshold, splits survivors into
// brand-specific (display name appears in the snippet text) and
// brand-relevant buckets, sorts each descending by relevance score with a
// stable sort, and truncates each bucket to the configured maximum.
func (r *Ranker) Select(scored []domain.ScoredSnippet, brand domain.BrandConfig, brandPrompt, marketPrompt string) domain.Selection {
	brandName := strings.ToLower(brand.Name())

	var specific, relevant []domain.ScoredSnippet
	summaries := make([]string, 0, len(scored))
	for _, item := range scored {
		summaries = append(summaries, item.Evaluation.Summary)
		if item.Evaluation.RelevanceScore < r.minScore {
			continue
		}
		if brandName != "" && strings.Contains(strings.ToLower(item.Snippet.Text), brandName) {
			specific = append(specific, item)
		} else {
			relevant = append(relevant, item)
		}
	}

	return domain.Selection{
		BrandSpecific:      r.bucket(specific),
		BrandRelevant:      r.bucket(relevant),
		ContentSummaries:   summaries,
		BrandSystemPrompt:  brandPrompt,
		MarketSystemPrompt: marketPrompt,
	}
}

func (r *Ranker) bucket(items []domain.ScoredSnippet) []domain.RankedLink {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Evaluation.RelevanceScore > items[j].Evaluation.RelevanceScore
	})

	limit := min(r.maxLinks, len(items))
	links := make([]domain.RankedLink, 0, limit)
	for _, item := range items[:limit] {
		headline := item.Evaluation.Headline
		if headline == "" {
			headline = item.Snippet.Title
		}
		links = append(links, domain.RankedLink{URL: item.Snippet.URL, Headline: headline})
	}
	return links
}
