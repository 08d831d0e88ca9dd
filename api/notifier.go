/*
notifier.go - Decision notifications

PURPOSE:
  Tells an employee what happened to their request. The production
  deployment would plug an SMTP or paging integration in here; the
  default implementation just logs the event.
*/
package api

import (
	"context"
	"log/slog"

	"github.com/bradleyems/leave-engine/leave"
)

// Notifier delivers request-decision notifications to employees.
type Notifier interface {
	NotifyDecision(ctx context.Context, emp leave.Employee, req leave.Request, message string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) NotifyDecision(_ context.Context, emp leave.Employee, req leave.Request, message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("leave decision notification",
		"employee", emp.Username,
		"email", emp.Email,
		"request_id", req.ID,
		"date", req.Date.String(),
		"shift", string(req.Shift),
		"status", string(req.Status),
		"message", message,
	)
}
