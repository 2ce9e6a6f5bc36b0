// Package worker attaches background consumers to the change feed.
package worker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Consumer subscribes its handlers to a dispatcher.
type Consumer interface {
	Register(d events.Dispatcher)
}

// StartEventConsumers registers every non-nil consumer on d.
func StartEventConsumers(d events.Dispatcher, logger *zap.Logger, consumers ...Consumer) {
	if d == nil {
		return
	}
	registered := 0
	for _, c := range consumers {
		if c == nil {
			continue
		}
		c.Register(d)
		registered++
		logger.Debug("event consumer registered", zap.String("consumer", fmt.Sprintf("%T", c)))
	}
	logger.Info("event consumers started", zap.Int("count", registered))
}
