// internal/delivery/sink.go
package delivery

import (
	"context"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"
)

// Sink presents a due notification to the user. The engine invokes a sink
// exactly once per notification at the moment it becomes due; any further
// fan-out (system toast, push channel, in-app banner) is the sink's
// business.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification) error
}

// LogSink writes notifications to the structured log. It doubles as the
// development delivery channel and as a safe default when no other sink is
// configured.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log.WithFields(map[string]interface{}{"sink": "log"})}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, n *models.Notification) error {
	s.logger.Info("notification", map[string]interface{}{
		"notificationId": n.ID,
		"type":           n.Type,
		"priority":       n.Priority,
		"title":          n.Title,
		"message":        n.Message,
		"actionRequired": n.ActionRequired,
	})
	return nil
}

// FanoutSink delivers to every child sink. A failing child is logged and
// does not stop the rest; FanoutSink itself never returns an error, keeping
// partial delivery invisible to the lifecycle manager.
type FanoutSink struct {
	sinks  []Sink
	logger logger.Logger
}

func NewFanoutSink(log logger.Logger, sinks ...Sink) *FanoutSink {
	return &FanoutSink{sinks: sinks, logger: log}
}

func (s *FanoutSink) Name() string { return "fanout" }

func (s *FanoutSink) Deliver(ctx context.Context, n *models.Notification) error {
	for _, child := range s.sinks {
		if err := child.Deliver(ctx, n); err != nil {
			s.logger.WithError(err).Warn("sink delivery failed", map[string]interface{}{
				"sink":           child.Name(),
				"notificationId": n.ID,
			})
		}
	}
	return nil
}
