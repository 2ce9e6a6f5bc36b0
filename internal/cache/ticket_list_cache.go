// Package cache keeps short-lived query results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

const (
	ticketListGenKey    = "helpdesk:chamados:gen"
	ticketListKeyPrefix = "helpdesk:chamados:list"
)

// TicketListCache stores ticket list pages. Every ticket change bumps a
// generation counter, which orphans all cached pages at once.
type TicketListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTicketListCache returns a cache. A nil client disables it.
func NewTicketListCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TicketListCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TicketListCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached page for scope and query, if any, and the slot a
// fresh page must be stored under. The slot pins the generation seen before
// the caller reads the store, so a page read across an invalidation lands
// under an orphaned key. An empty slot means the cache is unavailable.
func (c *TicketListCache) Get(ctx context.Context, scope, query string) ([]domain.Ticket, string, bool) {
	if c.client == nil {
		return nil, "", false
	}
	key, err := c.key(ctx, scope, query)
	if err != nil {
		c.logger.Debug("ticket list cache unavailable", zap.Error(err))
		return nil, "", false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("ticket list cache read failed", zap.Error(err))
		}
		return nil, key, false
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil, key, false
	}
	return tickets, key, true
}

// Set stores a page under the slot returned by Get.
func (c *TicketListCache) Set(ctx context.Context, slot string, tickets []domain.Ticket) {
	if c.client == nil || slot == "" {
		return
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, slot, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("ticket list cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached page.
func (c *TicketListCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, ticketListGenKey).Err(); err != nil {
		return fmt.Errorf("failed to bump ticket list generation: %w", err)
	}
	return nil
}

// Register invalidates the cache on every ticket change.
func (c *TicketListCache) Register(d events.Dispatcher) {
	handler := func(ctx context.Context, _ events.Event) error {
		return c.Invalidate(ctx)
	}
	d.Subscribe(events.EventTicketCreated, handler)
	d.Subscribe(events.EventTicketUpdated, handler)
	d.Subscribe(events.EventTicketDeleted, handler)
	d.Subscribe(events.EventResponseAdded, handler)
}

func (c *TicketListCache) key(ctx context.Context, scope, query string) (string, error) {
	gen, err := generation(ctx, c.client, ticketListGenKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s:%s", ticketListKeyPrefix, gen, scope, query), nil
}

func generation(ctx context.Context, client *redis.Client, key string) (int64, error) {
	gen, err := client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
