package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/irrigafacil/apiserver/internal/mq"
)

// Mailer delivers a single password-reset email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, event PasswordResetEvent) error
}

// RunWorker consumes auth email events until the context is canceled.
// Failed deliveries are nacked for broker redelivery.
func RunWorker(ctx context.Context, broker mq.Broker, mailer Mailer, logger *slog.Logger) error {
	return broker.Subscribe(ctx, EmailChannel, func(ctx context.Context, msg mq.Message) error {
		switch event := msg.Attributes["event"]; event {
		case eventPasswordReset:
			var payload PasswordResetEvent
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				// Undecodable messages are acked, retrying cannot fix them.
				logger.ErrorContext(ctx, "dropping undecodable email event", "id", msg.ID, "error", err)
				return nil
			}
			if err := mailer.SendPasswordReset(ctx, payload); err != nil {
				logger.ErrorContext(ctx, "password reset email failed", "id", msg.ID, "error", err)
				return fmt.Errorf("send password reset: %w", err)
			}
			logger.InfoContext(ctx, "password reset email sent", "id", msg.ID)
			return nil
		default:
			logger.WarnContext(ctx, "dropping unknown email event", "id", msg.ID, "event", event)
			return nil
		}
	})
}
