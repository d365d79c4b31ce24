// Package dispatch holds the notification delivery transports. The evaluator
// attempts delivery once per qualifying configuration per scan and treats
// failures as log-and-skip.
package dispatch

import (
	"context"
	"log/slog"

	"lexwatch/internal/notify/models"
)

// LogDispatcher writes notifications to the structured log. It stands in for
// a real delivery channel in development and as a local fallback.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, n models.Notification) error {
	d.logger.InfoContext(ctx, "notification dispatched",
		"notification_id", n.ID.String(),
		"user_id", n.UserID.String(),
		"scan_id", n.ScanID.String(),
		"type", string(n.Type),
		"summary", n.Summary,
	)
	return nil
}
