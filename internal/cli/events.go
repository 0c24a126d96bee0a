package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"safesphere/internal/domain/models"
	"safesphere/internal/streaming"
)

func newEventsCommand(opts *options) *cobra.Command {
	var (
		url      string
		minLevel string
		types    []string
		flags    []string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow live scan events from NATS",
		Long: `Subscribe to the scan event stream and print each new event as one JSON
line until interrupted.

  safesphere events --min-level high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := buildSubscription(minLevel, types, flags)
			if err != nil {
				return err
			}

			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.NATS.URL = url
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pub, err := streaming.NewNATSPublisher(ctx, cfg.NATS, log)
			if err != nil {
				return err
			}
			defer pub.Close()

			events, err := pub.Subscribe(ctx, sub)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for event := range events {
				if err := enc.Encode(event); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "NATS URL (overrides nats.url)")
	cmd.Flags().StringVar(&minLevel, "min-level", "", "Only scans at or above this level (low, medium, high)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Event types to show (scan_completed, high_risk_detected, history_cleared)")
	cmd.Flags().StringSliceVar(&flags, "flag", nil, "Only scans carrying one of these flags")
	return cmd
}

func buildSubscription(minLevel string, types, flags []string) (*streaming.Subscription, error) {
	sub := &streaming.Subscription{}

	if minLevel != "" {
		level := models.RiskLevel(strings.ToLower(minLevel))
		if !level.IsValid() {
			return nil, &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("invalid --min-level %q", minLevel)}
		}
		sub.MinRiskLevel = level
	}

	for _, t := range types {
		switch et := streaming.EventType(t); et {
		case streaming.EventTypeScanCompleted, streaming.EventTypeHighRisk, streaming.EventTypeHistoryCleared:
			sub.Types = append(sub.Types, et)
		default:
			return nil, &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("invalid --type %q", t)}
		}
	}

	for _, f := range flags {
		sub.Flags = append(sub.Flags, models.Flag(f))
	}
	return sub, nil
}
