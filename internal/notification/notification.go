package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTransferSubmitted indicates a transfer was recorded for processing.
	KindTransferSubmitted = "transfer_submitted"
	// KindRecipientAdded indicates a new payee was saved.
	KindRecipientAdded = "recipient_added"
	// KindError carries a user-facing failure message.
	KindError = "error"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. The CLI uses it to
// surface transient toast-style messages; the server uses it as the hook for
// a future SMS/email integration.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
