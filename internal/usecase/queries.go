package usecase

import (
	"log/slog"
	"math/rand"

	"BrandPulse/internal/domain"
)

const lastResortTerm = "latest news"

// SampleFunc draws up to n items uniformly at random without replacement.
type SampleFunc func(items []string, n int) []string

// ChooseFunc picks one item at random.
type ChooseFunc func(items []string) string

// QueryGenerator turns brand keywords, rotating phrase lists, and optional
// caller overrides into concrete search query strings.
type QueryGenerator struct {
	maxTerms int
	sample   SampleFunc
	choose   ChooseFunc
	logger   *slog.Logger
}

// NewQueryGenerator builds a generator with the default random source.
// Tests substitute sample/choose via WithSampling for reproducible terms.
func NewQueryGenerator(maxTerms int, logger *slog.Logger) *QueryGenerator {
	if maxTerms <= 0 {
		maxTerms = 5
	}
	return &QueryGenerator{
		maxTerms: maxTerms,
		sample:   randomSample,
		choose:   randomChoice,
		logger:   logger,
	}
}

// WithSampling replaces the random sampling and phrase choice strategies.
func (g *QueryGenerator) WithSampling(sample SampleFunc, choose ChooseFunc) *QueryGenerator {
	if sample != nil {
		g.sample = sample
	}
	if choose != nil {
		g.choose = choose
	}
	return g
}

// Generate produces the search terms for one task type, in strict priority
// order: caller-driven keyword+phrase pairing, then the brand's static
// default list, then a last-resort fallback.
func (g *QueryGenerator) Generate(brand domain.BrandConfig, override *domain.QueryOverride, task domain.TaskType) []string {
	keywords := brand.Keywords.All()
	maxTerms := g.maxTerms
	if override != nil && override.MaxSearchTerms > 0 {
		maxTerms = override.MaxSearchTerms
	}

	pool := g.phrasePool(brand, override, task)

	if g.callerDriven(override, task, keywords) && len(pool) > 0 && len(keywords) > 0 {
		sampled := g.sample(keywords, maxTerms)
		terms := make([]string, 0, len(sampled))
		for _, kw := range sampled {
			terms = append(terms, kw+" "+g.choose(pool))
		}
		if len(terms) > 0 {
			return terms
		}
	}

	if defaults := brand.DefaultQueriesFor(task); len(defaults) > 0 {
		return defaults
	}

	return g.lastResort(keywords, pool)
}

// callerDriven reports whether the override (or, for brand health, the mere
// presence of keywords) selects keyword+phrase pairing.
func (g *QueryGenerator) callerDriven(override *domain.QueryOverride, task domain.TaskType, keywords []string) bool {
	if override != nil {
		switch task {
		case domain.TaskMarketIntelligence:
			if len(override.MarketIntelligencePhrases) > 0 {
				return true
			}
		default:
			if len(override.CustomPhrases) > 0 {
				return true
			}
		}
	}
	return task == domain.TaskBrandHealth && len(keywords) > 0
}

// phrasePool merges the task-specific override phrases with the rotating
// pools from the override and the brand configuration.
func (g *QueryGenerator) phrasePool(brand domain.BrandConfig, override *domain.QueryOverride, task domain.TaskType) []string {
	var pool []string
	if override != nil {
		switch task {
		case domain.TaskMarketIntelligence:
			pool = append(pool, override.MarketIntelligencePhrases...)
		default:
			pool = append(pool, override.CustomPhrases...)
		}
		pool = append(pool, override.RotatingPhrases...)
	}
	pool = append(pool, brand.RotatingPhrases...)
	return pool
}

// lastResort pairs each sampled keyword with a single randomly chosen
// phrase, or falls back to a literal catch-all query.
func (g *QueryGenerator) lastResort(keywords, pool []string) []string {
	if len(keywords) == 0 {
		if g.logger != nil {
			g.logger.Warn("no keywords configured, using literal fallback query")
		}
		return []string{lastResortTerm}
	}

	phrase := "news"
	if len(pool) > 0 {
		phrase = g.choose(pool)
	}

	sampled := g.sample(keywords, g.maxTerms)
	terms := make([]string, 0, len(sampled))
	for _, kw := range sampled {
		terms = append(terms, kw+" "+phrase)
	}
	return terms
}

func randomSample(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	idx := rand.Perm(len(items))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, items[i])
	}
	return out
}

func randomChoice(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[rand.Intn(len(items))]
}
