package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestTicketListCache_DisabledWithoutClient(t *testing.T) {
	c := NewTicketListCache(nil, 0, nil)
	_, slot, ok := c.Get(context.Background(), "all", "q")
	assert.False(t, ok)
	assert.Empty(t, slot)
	c.Set(context.Background(), slot, []domain.Ticket{{ID: "t1"}})

	_, _, ok = c.Get(context.Background(), "all", "q")
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestTicketListCache_InvalidatedByTicketEvents(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	c := NewTicketListCache(client, time.Minute, nil)
	d := events.NewInMemoryDispatcher(nil)
	c.Register(d)

	_, slot, ok := c.Get(ctx, "owner:u1", "limit=50")
	require.False(t, ok)
	c.Set(ctx, slot, []domain.Ticket{{ID: "t1", Title: "Wi-Fi"}})

	got, _, ok := c.Get(ctx, "owner:u1", "limit=50")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Wi-Fi", got[0].Title)

	require.NoError(t, d.Publish(ctx, events.Event{Type: events.EventTicketUpdated, TicketID: "t1"}))

	_, _, ok = c.Get(ctx, "owner:u1", "limit=50")
	assert.False(t, ok)
}

func TestTicketListCache_PageReadBeforeInvalidationStaysOrphaned(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	c := NewTicketListCache(client, time.Minute, nil)

	_, slot, ok := c.Get(ctx, "all", "limit=20")
	require.False(t, ok)

	// a ticket is created while the missed page is being read from the store
	require.NoError(t, c.Invalidate(ctx))
	c.Set(ctx, slot, []domain.Ticket{})

	_, fresh, ok := c.Get(ctx, "all", "limit=20")
	assert.False(t, ok)
	assert.NotEqual(t, slot, fresh)
}

func TestFAQContextCache_RoundTripAndInvalidate(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	c := NewFAQContextCache(client, time.Minute, nil)
	category := "cat-1"

	pairs := []knowledge.Pair{{Question: "q", Answer: "a"}}
	_, slot, ok := c.GetContext(ctx, &category, 10)
	require.False(t, ok)
	c.SetContext(ctx, slot, pairs)

	got, _, ok := c.GetContext(ctx, &category, 10)
	require.True(t, ok)
	assert.Equal(t, pairs, got)

	_, _, ok = c.GetContext(ctx, nil, 10)
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(ctx))
	_, _, ok = c.GetContext(ctx, &category, 10)
	assert.False(t, ok)
}

func TestFAQContextCache_ContextReadBeforeChangeStaysOrphaned(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	c := NewFAQContextCache(client, time.Minute, nil)

	_, slot, ok := c.GetContext(ctx, nil, 10)
	require.False(t, ok)

	require.NoError(t, c.Invalidate(ctx))
	c.SetContext(ctx, slot, []knowledge.Pair{{Question: "antiga", Answer: "resposta"}})

	_, _, ok = c.GetContext(ctx, nil, 10)
	assert.False(t, ok)
}
