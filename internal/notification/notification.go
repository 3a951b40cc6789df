package notification

import (
	"context"
	"log/slog"
)

const (
	// KindDepositReceived indicates funds landed in a wallet.
	KindDepositReceived = "deposit_received"
	// KindWithdrawalCompleted indicates a payout was confirmed by the gateway.
	KindWithdrawalCompleted = "withdrawal_completed"
	// KindWithdrawalFailed indicates a payout failed and funds were returned.
	KindWithdrawalFailed = "withdrawal_failed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. Actual SMS/push
// delivery lives behind this interface.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
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
