// Package notification provides alert notification functionality.
// For MVP, this is a stubbed implementation that logs notifications.
// Future implementations will deliver to the channels named on each alert
// (webhook, email, chat) with retry logic.
package notification

import (
	"context"
	"log/slog"
	"time"

	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
)

// NotificationPayload represents the data sent in channel notifications.
type NotificationPayload struct {
	AlertID        string    `json:"alert_id"`
	OrganizationID string    `json:"organization_id"`
	ServerID       string    `json:"server_id"`
	Title          string    `json:"title"`
	Severity       string    `json:"severity"`
	Status         string    `json:"status"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notifier defines the interface for sending alert notifications.
type Notifier interface {
	// NotifyAlert dispatches a newly created alert to its channels.
	NotifyAlert(ctx context.Context, alert *domain.Alert)
}

// StubNotifier is a no-op implementation that logs notifications.
type StubNotifier struct {
	logger *slog.Logger
}

// NewStubNotifier creates a new stub notifier.
func NewStubNotifier(logger *slog.Logger) *StubNotifier {
	return &StubNotifier{
		logger: logger,
	}
}

// NotifyAlert logs a notification for a new alert.
func (n *StubNotifier) NotifyAlert(ctx context.Context, alert *domain.Alert) {
	payload := buildPayload(alert)

	channels := alert.NotificationChannels
	if len(channels) == 0 {
		channels = []string{"default"}
	}

	for _, channel := range channels {
		n.logger.Info("STUB: would send alert notification",
			"channel", channel,
			"alertID", payload.AlertID,
			"title", payload.Title,
			"severity", payload.Severity,
			"type", payload.Type,
		)
		metrics.NotificationsSentTotal.WithLabelValues(channel).Inc()
	}
}

// buildPayload creates a notification payload from an alert.
func buildPayload(alert *domain.Alert) *NotificationPayload {
	return &NotificationPayload{
		AlertID:        alert.ID,
		OrganizationID: alert.OrganizationID,
		ServerID:       alert.ServerID,
		Title:          alert.Title,
		Severity:       string(alert.Severity),
		Status:         string(alert.Status),
		Type:           string(alert.Type),
		Timestamp:      time.Now().UTC(),
	}
}
