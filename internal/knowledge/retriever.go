// Package knowledge selects the FAQ entries used to ground assistant answers.
package knowledge

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// DefaultLimit is the number of FAQ pairs sent with every question.
const DefaultLimit = 10

// Pair is one question/answer of the knowledge base.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Context is an ordered, finite set of pairs. It is safe to range over it
// any number of times.
type Context struct {
	pairs []Pair
}

// NewContext wraps pairs in a Context.
func NewContext(pairs ...Pair) Context {
	return Context{pairs: pairs}
}

// All yields the pairs in order.
func (c Context) All() iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		for _, p := range c.pairs {
			if !yield(p) {
				return
			}
		}
	}
}

// Len returns the number of pairs.
func (c Context) Len() int { return len(c.pairs) }

// Pairs returns a copy of the pairs.
func (c Context) Pairs() []Pair {
	return append([]Pair(nil), c.pairs...)
}

// Source reads FAQ entries from the store. Entries of categoryID come first,
// then by helpfulness and recency.
type Source interface {
	Sample(ctx context.Context, categoryID *string, limit int) ([]domain.FAQEntry, error)
}

// Cache stores assembled contexts between calls. GetContext returns the slot
// a context read after a miss is stored under; an empty slot skips the write.
type Cache interface {
	GetContext(ctx context.Context, categoryID *string, limit int) ([]Pair, string, bool)
	SetContext(ctx context.Context, slot string, pairs []Pair)
}

// Retriever fetches grounding context for the assistant.
type Retriever struct {
	source Source
	cache  Cache
	logger *zap.Logger
	limit  int
}

// NewRetriever builds a retriever. cache may be nil.
func NewRetriever(source Source, cache Cache, limit int, logger *zap.Logger) *Retriever {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{source: source, cache: cache, limit: limit, logger: logger}
}

// Limit returns the configured sample size.
func (r *Retriever) Limit() int { return r.limit }

// FetchContext returns up to limit pairs. A store failure yields an empty
// context; the caller still asks the assistant.
func (r *Retriever) FetchContext(ctx context.Context, categoryID *string, limit int) Context {
	if limit <= 0 {
		limit = r.limit
	}
	var slot string
	if r.cache != nil {
		pairs, cached, ok := r.cache.GetContext(ctx, categoryID, limit)
		if ok {
			return NewContext(pairs...)
		}
		slot = cached
	}
	if r.source == nil {
		return Context{}
	}

	entries, err := r.source.Sample(ctx, categoryID, limit)
	if err != nil {
		r.logger.Warn("faq context unavailable; continuing without knowledge base", zap.Error(err))
		return Context{}
	}

	pairs := make([]Pair, 0, len(entries))
	for _, entry := range entries {
		if len(pairs) == limit {
			break
		}
		pairs = append(pairs, Pair{Question: entry.Question, Answer: entry.Answer})
	}
	if r.cache != nil {
		r.cache.SetContext(ctx, slot, pairs)
	}
	return NewContext(pairs...)
}
