package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"sync"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// EvaluationScheduler fans snippet evaluations out to the LLM under two
// limits: a fixed concurrency ceiling on in-flight calls and a fixed
// maximum batch size processed sequentially. A bounded content-addressed
// cache intercepts repeat evaluations within process lifetime.
type EvaluationScheduler struct {
	evaluator ports.SnippetEvaluator
	sem       chan struct{}
	batchSize int
	cache     *evalCache
	logger    *slog.Logger
}

// NewEvaluationScheduler builds a scheduler with the given concurrency
// ceiling, batch size, and cache capacity.
func NewEvaluationScheduler(evaluator ports.SnippetEvaluator, concurrency, batchSize, cacheSize int, logger *slog.Logger) *EvaluationScheduler {
	if concurrency <= 0 {
		concurrency = 10
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &EvaluationScheduler{
		evaluator: evaluator,
		sem:       make(chan struct{}, concurrency),
		batchSize: batchSize,
		cache:     newEvalCache(cacheSize),
		logger:    logger,
	}
}

// EvaluateAll scores every snippet with non-empty text. Output order
// matches input order; snippets whose evaluation fails twice (initial plus
// repair) are dropped. Each returned evaluation is stamped with its
// source URL.
func (s *EvaluationScheduler) EvaluateAll(ctx context.Context, snippets []domain.Snippet, brand domain.BrandConfig, task domain.TaskType) []domain.ScoredSnippet {
	valid := make([]domain.Snippet, 0, len(snippets))
	for _, snip := range snippets {
		if snip.Text != "" {
			valid = append(valid, snip)
		}
	}

	var scored []domain.ScoredSnippet
	for start := 0; start < len(valid); start += s.batchSize {
		end := min(start+s.batchSize, len(valid))
		scored = append(scored, s.evaluateBatch(ctx, valid[start:end], brand, task)...)
	}
	return scored
}

// evaluateBatch runs one batch concurrently, gathering results
// positionally so async completion does not reorder them.
func (s *EvaluationScheduler) evaluateBatch(ctx context.Context, batch []domain.Snippet, brand domain.BrandConfig, task domain.TaskType) []domain.ScoredSnippet {
	results := make([]*domain.Evaluation, len(batch))

	var wg sync.WaitGroup
	for i, snip := range batch {
		wg.Add(1)
		go func(i int, snip domain.Snippet) {
			defer wg.Done()

			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			if eval, ok := s.evaluate(ctx, snip.Text, brand, task); ok {
				eval.URL = snip.URL
				results[i] = &eval
			}
		}(i, snip)
	}
	wg.Wait()

	scored := make([]domain.ScoredSnippet, 0, len(batch))
	for i, eval := range results {
		if eval != nil {
			scored = append(scored, domain.ScoredSnippet{Snippet: batch[i], Evaluation: *eval})
		}
	}
	return scored
}

// evaluate checks the cache before going to the transport. Cache keys are
// content-addressed on (snippet text, brand id, task type), never on
// caller identity.
func (s *EvaluationScheduler) evaluate(ctx context.Context, text string, brand domain.BrandConfig, task domain.TaskType) (domain.Evaluation, bool) {
	key := cacheKey(text, brand.ID, task)
	if eval, ok := s.cache.get(key); ok {
		return eval, true
	}

	eval, err := s.evaluator.EvaluateSnippet(ctx, text, brand, task)
	if err != nil {
		s.log().Warn("snippet dropped after failed evaluation", "task", string(task), "error", err)
		return domain.Evaluation{}, false
	}

	s.cache.put(key, eval)
	return eval, true
}

func (s *EvaluationScheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func cacheKey(text, brandID string, task domain.TaskType) string {
	sum := sha1.Sum([]byte(text + "|" + brandID + "|" + string(task)))
	return hex.EncodeToString(sum[:])
}

// evalCache is a small mutex-guarded LRU keyed by content hash.
type evalCache struct {
	mu       sync.Mutex
	items    map[string]domain.Evaluation
	order    []string
	capacity int
}

func newEvalCache(capacity int) *evalCache {
	if capacity <= 0 {
		capacity = 512
	}
	return &evalCache{
		items:    make(map[string]domain.Evaluation, capacity),
		capacity: capacity,
	}
}

func (c *evalCache) get(key string) (domain.Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	eval, ok := c.items[key]
	if ok {
		c.touch(key)
	}
	return eval, ok
}

func (c *evalCache) put(key string, eval domain.Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		c.items[key] = eval
		c.touch(key)
		return
	}

	c.items[key] = eval
	c.order = append(c.order, key)
	for len(c.items) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// touch moves the key to the most-recent end of the order.
func (c *evalCache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}
