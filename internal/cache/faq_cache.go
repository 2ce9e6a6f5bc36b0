package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
)

const (
	faqGenKey    = "helpdesk:faq:gen"
	faqKeyPrefix = "helpdesk:faq:ctx"
)

// FAQContextCache stores assembled knowledge contexts.
type FAQContextCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ knowledge.Cache = (*FAQContextCache)(nil)

// NewFAQContextCache returns a cache. A nil client disables it.
func NewFAQContextCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *FAQContextCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FAQContextCache{client: client, ttl: ttl, logger: logger}
}

// GetContext implements knowledge.Cache.
func (c *FAQContextCache) GetContext(ctx context.Context, categoryID *string, limit int) ([]knowledge.Pair, string, bool) {
	if c.client == nil {
		return nil, "", false
	}
	key, err := c.key(ctx, categoryID, limit)
	if err != nil {
		c.logger.Debug("faq cache unavailable", zap.Error(err))
		return nil, "", false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, key, false
	}
	var pairs []knowledge.Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, key, false
	}
	return pairs, key, true
}

// SetContext implements knowledge.Cache.
func (c *FAQContextCache) SetContext(ctx context.Context, slot string, pairs []knowledge.Pair) {
	if c.client == nil || slot == "" {
		return
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, slot, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("faq cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached context.
func (c *FAQContextCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, faqGenKey).Err(); err != nil {
		return fmt.Errorf("failed to bump faq generation: %w", err)
	}
	return nil
}

// Register invalidates the cache when the knowledge base changes.
func (c *FAQContextCache) Register(d events.Dispatcher) {
	d.Subscribe(events.EventFAQChanged, func(ctx context.Context, _ events.Event) error {
		return c.Invalidate(ctx)
	})
}

func (c *FAQContextCache) key(ctx context.Context, categoryID *string, limit int) (string, error) {
	gen, err := generation(ctx, c.client, faqGenKey)
	if err != nil {
		return "", err
	}
	category := "all"
	if categoryID != nil {
		category = *categoryID
	}
	return fmt.Sprintf("%s:%d:%s:%d", faqKeyPrefix, gen, category, limit), nil
}
