package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// NATSDispatcher shares the change feed between service instances. Events
// published here reach local handlers through the NATS subscription, so every
// instance observes every change exactly once.
type NATSDispatcher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger

	mu   sync.Mutex
	subs map[EventType]*subjectSubscription
}

type subjectSubscription struct {
	sub      *nats.Subscription
	mu       sync.RWMutex
	handlers []EventHandler
}

// ConnectNATS dials the server described by cfg.
func ConnectNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("helpdesk-service"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats async error", zap.String("subject", subject), zap.Error(err))
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats at %s: %w", cfg.URL, err)
	}
	logger.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return conn, nil
}

// NewNATSDispatcher builds a dispatcher publishing under prefix.<event type>.
func NewNATSDispatcher(conn *nats.Conn, prefix string, logger *zap.Logger) *NATSDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "helpdesk.events"
	}
	return &NATSDispatcher{
		conn:   conn,
		prefix: prefix,
		logger: logger,
		subs:   make(map[EventType]*subjectSubscription),
	}
}

// Subject returns the NATS subject carrying eventType.
func (d *NATSDispatcher) Subject(eventType EventType) string {
	return d.prefix + "." + string(eventType)
}

// Publish encodes the event as JSON and publishes it.
func (d *NATSDispatcher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := d.conn.Publish(d.Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe registers handler; the first handler of a type opens the NATS subscription.
func (d *NATSDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.subs[eventType]; ok {
		existing.mu.Lock()
		existing.handlers = append(existing.handlers, handler)
		existing.mu.Unlock()
		return
	}

	entry := &subjectSubscription{handlers: []EventHandler{handler}}
	sub, err := d.conn.Subscribe(d.Subject(eventType), func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			d.logger.Warn("discarding malformed event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		entry.mu.RLock()
		handlers := append([]EventHandler{}, entry.handlers...)
		entry.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		deliver(ctx, d.logger, handlers, event)
	})
	if err != nil {
		d.logger.Error("nats subscribe failed", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}
	entry.sub = sub
	d.subs[eventType] = entry
}

// Close unsubscribes and drains the connection.
func (d *NATSDispatcher) Close() error {
	d.mu.Lock()
	for eventType, entry := range d.subs {
		if err := entry.sub.Unsubscribe(); err != nil {
			d.logger.Warn("nats unsubscribe failed", zap.String("event_type", string(eventType)), zap.Error(err))
		}
	}
	d.subs = map[EventType]*subjectSubscription{}
	d.mu.Unlock()
	return d.conn.Drain()
}
