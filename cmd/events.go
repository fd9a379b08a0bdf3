/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/inkwell-blog/blogserver/config"
	"github.com/inkwell-blog/blogserver/internal/mq"
	"github.com/inkwell-blog/blogserver/internal/services"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tails the post lifecycle event stream",
	Long: `Subscribes to the configured message broker and logs every post
lifecycle event (created, updated, deleted). Usage:

	blogserver events
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		broker, err := mq.FromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect broker failed: %w", err)
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is required")
		}
		defer func() {
			_ = broker.Close()
		}()

		logger.Info("listening for post events", "channel", services.EventChannel)
		err = broker.Subscribe(cmd.Context(), services.EventChannel, func(ctx context.Context, msg mq.Message) error {
			var event services.PostEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				logger.Warn("skipping undecodable event", "message_id", msg.ID, "error", err)
				return nil
			}
			logger.Info("post event",
				"action", event.Action,
				"post_id", event.PostID,
				"author_id", event.AuthorID,
				"title", event.Title,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
