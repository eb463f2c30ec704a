package usecase

import (
	"fmt"
	"strings"

	"BrandPulse/internal/domain"
)

const brandHealthFocus = "Focus on sentiment, customer service issues, product feedback and direct competitor comparisons."

const marketIntelligenceFocus = "Focus on market trends, competitor strategies and opportunities like emerging delivery tech or ghost kitchens."

// buildSystemPrompt embeds the brand identity, tone, task focus, keyword
// allowlist, and banned words into one system instruction.
func buildSystemPrompt(brand domain.BrandConfig, task domain.TaskType) string {
	focus := brandHealthFocus
	if task == domain.TaskMarketIntelligence {
		focus = marketIntelligenceFocus
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a helpful assistant that evaluates online text for the brand %s.\n", brand.Name()))
	if brand.Tone.Persona != "" || brand.Tone.StyleGuide != "" {
		sb.WriteString(fmt.Sprintf("The content should align with a %s %s tone.\n",
			strings.TrimSpace(brand.Tone.Persona), strings.TrimSpace(brand.Tone.StyleGuide)))
	}
	sb.WriteString(focus)
	sb.WriteString("\n")
	if kws := brand.Keywords.All(); len(kws) > 0 {
		sb.WriteString("Focus on these keywords: " + strings.Join(kws, ", ") + ".\n")
	}
	if len(brand.BannedWords) > 0 {
		sb.WriteString("Avoid these banned words: " + strings.Join(brand.BannedWords, ", ") + ".\n")
	}
	sb.WriteString(`Respond with JSON only, no other text:
{
  "summary": "concise summary in the brand tone",
  "headline": "one-sentence headline",
  "sentiment": {"label": "positive|neutral|negative", "score": -1.0 to 1.0},
  "entities": [{"name": "entity name", "type": "entity type"}],
  "relevance_score": 0-100,
  "categories": ["category", ...]
}`)
	return sb.String()
}

// repairSystemPrompt instructs the model to coerce free-form output into
// the required evaluation structure.
const repairSystemPrompt = `Coerce the provided text into a JSON object with exactly these fields:
summary (string), headline (string), sentiment ({label, score}), entities ([{name, type}]), relevance_score (integer 0-100), categories ([string]).
Respond with the JSON object only.`
