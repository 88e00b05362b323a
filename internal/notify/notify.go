// Package notify carries auth-related notifications out of the request path.
// The API server publishes events to a message broker; the worker command
// consumes them and delivers the actual emails.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/irrigafacil/apiserver/internal/mq"
)

// EmailChannel is the broker channel carrying outbound auth emails.
const EmailChannel = "auth-emails"

// eventPasswordReset tags password-reset email events on the wire.
const eventPasswordReset = "password-reset"

// PasswordResetEvent is the payload published when a user requests a
// password reset. Link embeds the raw reset token.
type PasswordResetEvent struct {
	To        string    `json:"to"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier hands auth events to the out-of-process delivery pipeline.
type Notifier interface {
	PasswordResetRequested(ctx context.Context, event PasswordResetEvent) error
}

// BrokerNotifier publishes events as JSON messages on a broker channel.
type BrokerNotifier struct {
	broker mq.Broker
}

func NewBrokerNotifier(broker mq.Broker) *BrokerNotifier {
	return &BrokerNotifier{broker: broker}
}

func (n *BrokerNotifier) PasswordResetRequested(ctx context.Context, event PasswordResetEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	attrs := map[string]string{"event": eventPasswordReset}
	_, err = n.broker.Publish(ctx, EmailChannel, data, attrs)
	return err
}

// LogNotifier is the fallback when no broker is configured: it records the
// event server-side and drops it. Useful for local development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PasswordResetRequested(ctx context.Context, event PasswordResetEvent) error {
	n.logger.InfoContext(ctx, "password reset requested, no broker configured",
		"to", event.To,
		"expires_at", event.ExpiresAt,
	)
	return nil
}
