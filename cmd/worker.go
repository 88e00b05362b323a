/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/irrigafacil/apiserver/config"
	"github.com/irrigafacil/apiserver/internal/db"
	"github.com/irrigafacil/apiserver/internal/mq"
	"github.com/irrigafacil/apiserver/internal/notify"
	"github.com/irrigafacil/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// resetTokenSweepInterval controls how often expired reset tokens are purged.
const resetTokenSweepInterval = time.Hour

// workerCmd represents the worker command.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the notification worker",
	Long: `Consumes auth email events from the message broker, delivers them via
SendGrid, and periodically purges expired password-reset tokens.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := openBroker(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = broker.Close()
		}()

		mailer, err := notify.NewSendGridMailer(cfg.Mail)
		if err != nil {
			return err
		}

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = dbConn.Close()
		}()

		go sweepResetTokens(ctx, store.NewResetTokenRepository(dbConn), logger)

		logger.Info("notification worker started")
		if err := notify.RunWorker(ctx, broker, mailer, logger); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker stopped: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func openBroker(ctx context.Context, cfg config.Config) (mq.Broker, error) {
	if strings.TrimSpace(cfg.RabbitMQ.URL) != "" {
		return mq.NewRabbitBroker(cfg.RabbitMQ)
	}
	if strings.TrimSpace(cfg.PubSub.ProjectID) != "" {
		return mq.NewPubSubBroker(ctx, cfg.PubSub)
	}
	return nil, errors.New("no message broker configured: set RABBITMQ_URL or PUBSUB_PROJECT_ID")
}

func sweepResetTokens(ctx context.Context, repo *store.ResetTokenRepository, logger *slog.Logger) {
	ticker := time.NewTicker(resetTokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.ErrorContext(ctx, "reset token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.InfoContext(ctx, "purged expired reset tokens", "count", removed)
			}
		}
	}
}
