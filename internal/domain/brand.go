package domain

// TaskType selects the analysis framing for an evaluation batch.
type TaskType string

const (
	TaskBrandHealth        TaskType = "brand_health"
	TaskMarketIntelligence TaskType = "market_intelligence"
)

// BrandKeywords splits the keyword allowlist into core and extended tiers.
type BrandKeywords struct {
	Core     []string `yaml:"core"`
	Extended []string `yaml:"extended"`
}

// All returns core and extended keywords in declaration order.
func (k BrandKeywords) All() []string {
	out := make([]string, 0, len(k.Core)+len(k.Extended))
	out = append(out, k.Core...)
	out = append(out, k.Extended...)
	return out
}

// BrandTone describes the voice evaluations should be written in.
type BrandTone struct {
	Persona    string `yaml:"persona"`
	StyleGuide string `yaml:"style_guide"`
}

// FewShotExample is one example exchange prepended to evaluation prompts.
type FewShotExample struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// BrandConfig is the read-only per-brand configuration loaded from the
// brand repository file.
type BrandConfig struct {
	ID              string              `yaml:"id"`
	DisplayName     string              `yaml:"display_name"`
	Keywords        BrandKeywords       `yaml:"keywords"`
	BannedWords     []string            `yaml:"banned_words"`
	Tone            BrandTone           `yaml:"tone"`
	RotatingPhrases []string            `yaml:"rotating_phrases"`
	DefaultQueries  map[string][]string `yaml:"default_queries"`
	FewShotExamples []FewShotExample    `yaml:"few_shot_examples"`
	DomainBlacklist []string            `yaml:"domain_blacklist"`
}

// Name returns the display name, falling back to the brand id.
func (b BrandConfig) Name() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.ID
}

// DefaultQueriesFor returns the static default query list for a task type.
func (b BrandConfig) DefaultQueriesFor(task TaskType) []string {
	if b.DefaultQueries == nil {
		return nil
	}
	return b.DefaultQueries[string(task)]
}

// QueryOverride is the optional caller-supplied query structure carried
// with a run request.
type QueryOverride struct {
	CustomPhrases             []string `json:"custom_phrases,omitempty"`
	MarketIntelligencePhrases []string `json:"market_intelligence_phrases,omitempty"`
	RotatingPhrases           []string `json:"rotating_phrases,omitempty"`
	MaxSearchTerms            int      `json:"max_search_terms,omitempty"`
}
