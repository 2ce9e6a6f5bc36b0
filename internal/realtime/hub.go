// Package realtime fans change events out to live views.
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Topics understood by the hub.
const (
	ListTopic = "chamados"
	FAQTopic  = "faq"
)

// TicketTopic is the topic of a single ticket's response thread.
func TicketTopic(ticketID string) string {
	return "chamado:" + ticketID
}

// Notification tells a view that it should refetch.
type Notification struct {
	Topic    string           `json:"topic"`
	Type     events.EventType `json:"type"`
	TicketID string           `json:"ticket_id,omitempty"`
}

// Filter decides whether a subscriber may see an event. Nil accepts all.
type Filter func(events.Event) bool

// Subscription is a single view's interest in a topic. Release it with Close.
type Subscription struct {
	topic  string
	filter Filter
	ch     chan Notification
	hub    *Hub
	once   sync.Once
}

// C delivers notifications. At most one is pending at a time; further events
// arriving before the view drains it are coalesced into the pending one.
func (s *Subscription) C() <-chan Notification {
	return s.ch
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

func (s *Subscription) offer(n Notification) bool {
	select {
	case s.ch <- n:
		return true
	default:
		return false
	}
}

// Hub tracks subscriptions per topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Register subscribes the hub to every event type of d.
func (h *Hub) Register(d events.Dispatcher) {
	for _, eventType := range events.AllTypes {
		d.Subscribe(eventType, h.HandleEvent)
	}
}

// Subscribe opens a subscription on topic.
func (h *Hub) Subscribe(topic string, filter Filter) *Subscription {
	sub := &Subscription{
		topic:  topic,
		filter: filter,
		ch:     make(chan Notification, 1),
		hub:    h,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// SubscriberCount reports how many subscriptions are open on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// HandleEvent routes an event to the topics it affects.
func (h *Hub) HandleEvent(_ context.Context, event events.Event) error {
	for _, topic := range topicsFor(event) {
		h.notify(topic, event)
	}
	return nil
}

func topicsFor(event events.Event) []string {
	switch event.Type {
	case events.EventFAQChanged:
		return []string{FAQTopic}
	case events.EventResponseAdded:
		return []string{TicketTopic(event.TicketID), ListTopic}
	default:
		if event.TicketID == "" {
			return []string{ListTopic}
		}
		return []string{ListTopic, TicketTopic(event.TicketID)}
	}
}

func (h *Hub) notify(topic string, event events.Event) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.topics[topic]))
	for sub := range h.topics[topic] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	n := Notification{Topic: topic, Type: event.Type, TicketID: event.TicketID}
	coalesced := 0
	for _, sub := range targets {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		if !sub.offer(n) {
			coalesced++
		}
	}
	if coalesced > 0 {
		h.logger.Debug("realtime notifications coalesced",
			zap.String("topic", topic),
			zap.Int("count", coalesced))
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}
