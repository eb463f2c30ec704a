package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"BrandPulse/internal/domain"
)

func TestGenerateBrandHealthPairsKeywordsWithPhrases(t *testing.T) {
	gen := NewQueryGenerator(2, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID:              "pizza-co",
		Keywords:        domain.BrandKeywords{Core: []string{"pizza", "culture"}},
		RotatingPhrases: []string{"analysis"},
	}

	terms := gen.Generate(brand, nil, domain.TaskBrandHealth)
	require.Equal(t, []string{"pizza analysis", "culture analysis"}, terms)
}

func TestGenerateOverrideMaxSearchTermsWins(t *testing.T) {
	gen := NewQueryGenerator(5, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID:              "b",
		Keywords:        domain.BrandKeywords{Core: []string{"one", "two", "three"}},
		RotatingPhrases: []string{"news"},
	}
	override := &domain.QueryOverride{MaxSearchTerms: 1}

	terms := gen.Generate(brand, override, domain.TaskBrandHealth)
	require.Equal(t, []string{"one news"}, terms)
}

func TestGenerateOverridePhrasesTakePriority(t *testing.T) {
	gen := NewQueryGenerator(2, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID:              "b",
		Keywords:        domain.BrandKeywords{Core: []string{"acme"}},
		RotatingPhrases: []string{"brand phrase"},
	}
	override := &domain.QueryOverride{CustomPhrases: []string{"override phrase"}}

	terms := gen.Generate(brand, override, domain.TaskBrandHealth)
	require.Equal(t, []string{"acme override phrase"}, terms)
}

func TestGenerateMarketTaskUsesMarketPhrases(t *testing.T) {
	gen := NewQueryGenerator(2, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID:       "b",
		Keywords: domain.BrandKeywords{Core: []string{"acme"}},
	}
	override := &domain.QueryOverride{
		CustomPhrases:             []string{"brand only"},
		MarketIntelligencePhrases: []string{"market trends"},
	}

	terms := gen.Generate(brand, override, domain.TaskMarketIntelligence)
	require.Equal(t, []string{"acme market trends"}, terms)
}

func TestGenerateFallsBackToBrandDefaults(t *testing.T) {
	gen := NewQueryGenerator(3, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID: "b",
		DefaultQueries: map[string][]string{
			"market_intelligence": {"industry outlook 2026"},
		},
	}

	terms := gen.Generate(brand, nil, domain.TaskMarketIntelligence)
	require.Equal(t, []string{"industry outlook 2026"}, terms)
}

func TestGenerateLastResortPairsKeywordsWithNews(t *testing.T) {
	gen := NewQueryGenerator(3, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID:       "b",
		Keywords: domain.BrandKeywords{Core: []string{"acme"}},
	}

	// Market task with keywords but no phrases, defaults, or override.
	terms := gen.Generate(brand, nil, domain.TaskMarketIntelligence)
	require.Equal(t, []string{"acme news"}, terms)
}

func TestGenerateLiteralFallbackWithoutKeywords(t *testing.T) {
	gen := NewQueryGenerator(3, nil).WithSampling(identitySample, firstChoice)

	terms := gen.Generate(domain.BrandConfig{ID: "b"}, nil, domain.TaskBrandHealth)
	require.Equal(t, []string{"latest news"}, terms)
}

func TestGenerateExtendedKeywordsIncluded(t *testing.T) {
	gen := NewQueryGenerator(4, nil).WithSampling(identitySample, firstChoice)
	brand := domain.BrandConfig{
		ID: "b",
		Keywords: domain.BrandKeywords{
			Core:     []string{"core"},
			Extended: []string{"extended"},
		},
		RotatingPhrases: []string{"update"},
	}

	terms := gen.Generate(brand, nil, domain.TaskBrandHealth)
	require.Equal(t, []string{"core update", "extended update"}, terms)
}
