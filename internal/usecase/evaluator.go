package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// ContentEvaluator scores a piece of text for a brand through the LLM
// completion transport. Retries are internal to the transport; this layer
// adds exactly one repair pass when the structured result cannot be parsed.
type ContentEvaluator struct {
	completer ports.Completer
	logger    *slog.Logger
}

var _ ports.SnippetEvaluator = (*ContentEvaluator)(nil)

// NewContentEvaluator wires a completion transport.
func NewContentEvaluator(completer ports.Completer, logger *slog.Logger) *ContentEvaluator {
	return &ContentEvaluator{completer: completer, logger: logger}
}

// SystemPrompt exposes the exact instruction used for a brand and task,
// for report auditability.
func (e *ContentEvaluator) SystemPrompt(brand domain.BrandConfig, task domain.TaskType) string {
	return buildSystemPrompt(brand, task)
}

// EvaluateSnippet runs one evaluation call, falling back to a single
// repair pass before giving up.
func (e *ContentEvaluator) EvaluateSnippet(ctx context.Context, text string, brand domain.BrandConfig, task domain.TaskType) (domain.Evaluation, error) {
	messages := make([]ports.Message, 0, 2+2*len(brand.FewShotExamples))
	messages = append(messages, ports.Message{Role: "system", Content: buildSystemPrompt(brand, task)})
	for _, ex := range brand.FewShotExamples {
		messages = append(messages,
			ports.Message{Role: "user", Content: ex.Input},
			ports.Message{Role: "assistant", Content: ex.Output},
		)
	}
	messages = append(messages, ports.Message{Role: "user", Content: text})

	raw, err := e.completer.Complete(ctx, messages)
	if err == nil {
		if eval, parseErr := parseEvaluation(raw); parseErr == nil {
			return eval, nil
		} else {
			err = parseErr
		}
	}

	e.log().Warn("evaluation failed, attempting repair pass", "task", string(task), "error", err)
	return e.repair(ctx, text)
}

// repair resends the raw text with a coercion instruction. A second
// failure drops the snippet; there is no further retry at this layer.
func (e *ContentEvaluator) repair(ctx context.Context, text string) (domain.Evaluation, error) {
	raw, err := e.completer.Complete(ctx, []ports.Message{
		{Role: "system", Content: repairSystemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("repair completion: %w", err)
	}

	eval, err := parseEvaluation(raw)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("repair parse: %w", err)
	}
	return eval, nil
}

func (e *ContentEvaluator) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// parseEvaluation decodes the model output into the evaluation shape,
// tolerating markdown code fences around the JSON.
func parseEvaluation(raw string) (domain.Evaluation, error) {
	var eval domain.Evaluation
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &eval); err != nil {
		return domain.Evaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	return eval, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
