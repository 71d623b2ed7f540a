package rewrite

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
)

// Expansion strategies recorded on sub-queries.
const (
	StrategyOriginal = "original"
	StrategyLLM      = "llm"
	StrategySynonym  = "synonym"
	StrategyKeywords = "keywords"
)

// Rewriter normalizes a raw query and expands it into sub-queries that
// capture different phrasings of the same intent. Expansion uses the
// generation backend when one is configured and degrades to rule-based
// expansion on any failure; it never fails the pipeline.
type Rewriter struct {
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter) error

// WithGenerator sets the generation backend used for LLM expansion.
// Without one, expansion is purely rule-based.
func WithGenerator(generator ai.Generator) Option {
	return func(r *Rewriter) error {
		r.generator = generator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRewriter creates a new rewriter.
func NewRewriter(opts ...Option) (*Rewriter, error) {
	r := &Rewriter{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize trims the query and collapses internal whitespace runs to a
// single space.
func Normalize(text string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
}

// Expand produces at most n sub-queries for the text. The normalized
// original is always the first element, so the result is never empty and
// never larger than n (n below 1 is treated as 1).
func (r *Rewriter) Expand(ctx context.Context, text string, n int) []core.SubQuery {
	normalized := Normalize(text)
	subs := []core.SubQuery{{Id: 0, Text: normalized, Strategy: StrategyOriginal}}
	if n <= 1 {
		return subs
	}

	var variants []string
	var strategy string
	if r.generator != nil {
		var err error
		variants, err = r.expandWithLLM(ctx, normalized, n-1)
		strategy = StrategyLLM
		if err != nil {
			r.logger.Warn("LLM expansion failed, using rule-based", "err", err)
			variants = nil
		}
	}
	if len(variants) == 0 {
		return appendRuleExpansions(subs, normalized, n)
	}

	seen := map[string]bool{normalized: true}
	for _, v := range variants {
		if seen[v] {
			continue
		}
		seen[v] = true
		subs = append(subs, core.SubQuery{Id: len(subs), Text: v, Strategy: strategy})
		if len(subs) >= n {
			break
		}
	}
	return subs
}

var lineNumbering = regexp.MustCompile(`^\d+[\.\)]\s*`)

// expandWithLLM asks the generation backend for alternative phrasings,
// one per line.
func (r *Rewriter) expandWithLLM(ctx context.Context, query string, count int) ([]string, error) {
	prompt := buildExpansionPrompt(query, count)
	response, err := r.generator.Generate(ctx, prompt, &ai.GenerateOptions{Temperature: 0.0})
	if err != nil {
		return nil, err
	}

	var variants []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = Normalize(lineNumbering.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		variants = append(variants, line)
		if len(variants) >= count {
			break
		}
	}
	return variants, nil
}
