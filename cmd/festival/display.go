package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/display"
	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/pkg/logger"
)

func displayCommand() *cobra.Command {
	var (
		server string
		plain  bool
	)
	cmd := &cobra.Command{
		Use:   "display",
		Short: "Show the live results board in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			logr, err := logger.NewCLI(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			dc := cfg.Display
			if server != "" {
				dc.ServerURL = server
			}
			var levels []models.EventLevel
			for _, raw := range dc.Tracks {
				if lvl := models.ParseEventLevel(raw); lvl != nil {
					levels = append(levels, *lvl)
				} else {
					logr.Warn("ignoring unknown display track", zap.String("track", raw))
				}
			}
			if !plain && !isatty.IsTerminal(os.Stdout.Fd()) {
				plain = true
			}

			runner := display.NewRunner(
				display.NewMachine(levels, dc.RecentLimit),
				display.NewAPIClient(dc.ServerURL, nil),
				display.NewStreamClient(dc.ServerURL, nil),
				display.NewTerminalRenderer(os.Stdout, plain),
				display.Options{
					PollInterval:   dc.PollInterval,
					RevealDuration: dc.RevealDuration,
					ResyncDelay:    dc.ResyncDelay,
					ScrollInterval: dc.ScrollInterval,
				},
				logr.Named("display"),
			)
			logr.Info("display connecting", zap.String("server", dc.ServerURL), zap.Int("tracks", len(levels)))
			return runner.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "API base URL, overrides DISPLAY_SERVER_URL")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colours and screen clearing")
	return cmd
}
