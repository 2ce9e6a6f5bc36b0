package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
)

const (
	realtimeTopicKey   = "realtime_topic"
	realtimeProfileKey = "realtime_profile"
	realtimePingPeriod = 30 * time.Second
)

// RealtimeHandler pushes refetch notifications to live views over websockets.
type RealtimeHandler struct {
	hub     *realtime.Hub
	tickets TicketWorkflow
	logger  *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, tickets TicketWorkflow, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{hub: hub, tickets: tickets, logger: logger}
}

// UpgradeTicketList accepts GET /realtime/chamados.
func (h *RealtimeHandler) UpgradeTicketList(c *fiber.Ctx) error {
	return h.prepare(c, realtime.ListTopic)
}

// UpgradeTicketThread accepts GET /realtime/chamados/:id once the caller may see the ticket.
func (h *RealtimeHandler) UpgradeTicketThread(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return h.prepare(c, realtime.TicketTopic(ticket.ID))
}

// UpgradeFAQ accepts GET /realtime/faq.
func (h *RealtimeHandler) UpgradeFAQ(c *fiber.Ctx) error {
	return h.prepare(c, realtime.FAQTopic)
}

func (h *RealtimeHandler) prepare(c *fiber.Ctx, topic string) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(realtimeTopicKey, strings.Clone(topic))
	c.Locals(realtimeProfileKey, actor)
	return c.Next()
}

// Stream is the websocket loop. The subscription is released on every exit path.
func (h *RealtimeHandler) Stream(conn *websocket.Conn) {
	topic, _ := conn.Locals(realtimeTopicKey).(string)
	profile, _ := conn.Locals(realtimeProfileKey).(*domain.Profile)
	if topic == "" || profile == nil {
		_ = conn.Close()
		return
	}

	sub := h.hub.Subscribe(topic, visibleTo(profile, topic))
	defer sub.Close()

	logger := h.logger.With(zap.String("topic", topic), zap.String("profile_id", profile.ID))
	logger.Debug("realtime view opened")
	defer logger.Debug("realtime view closed")

	// The client sends nothing; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("realtime read failed", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(realtimePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case n := <-sub.C():
			if err := conn.WriteJSON(n); err != nil {
				logger.Debug("realtime write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// visibleTo limits the ticket list feed of a requester to their own tickets.
func visibleTo(profile *domain.Profile, topic string) realtime.Filter {
	if profile.IsStaff() || topic != realtime.ListTopic {
		return nil
	}
	ownerID := profile.ID
	return func(e events.Event) bool {
		return e.OwnerID == ownerID
	}
}
