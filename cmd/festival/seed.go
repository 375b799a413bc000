package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/noah-isme/festival-live-api/internal/service"
	"github.com/noah-isme/festival-live-api/pkg/logger"
)

func seedCommand() *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the houses and sample events",
		Long:  "Create the three fixed houses and the sample events. With --demo, also add demo events and random podiums.",
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

			a, err := newApp(cmd.Context(), cfg, logr)
			if err != nil {
				return err
			}
			defer a.close()

			var report *service.SeedReport
			if demo {
				report, err = a.seed.SeedDemo(cmd.Context())
			} else {
				report, err = a.seed.Seed(cmd.Context())
			}
			if err != nil {
				return err
			}
			printSeedReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "also create demo events with random results")
	return cmd
}

func cleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove demo results and demo events",
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

			a, err := newApp(cmd.Context(), cfg, logr)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.seed.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d demo results and %d demo events.\n", report.ResultsDeleted, report.EventsDeleted)
			return nil
		},
	}
}

func printSeedReport(report *service.SeedReport) {
	houses := tablewriter.NewWriter(os.Stdout)
	houses.SetHeader([]string{"Code", "House", "ID"})
	for _, inst := range report.Institutions {
		houses.Append([]string{inst.Code, inst.Name, inst.ID})
	}
	houses.Render()

	events := tablewriter.NewWriter(os.Stdout)
	events.SetHeader([]string{"Event", "Level", "Room", "ID"})
	for _, e := range report.Events {
		room := ""
		if e.RoomCode != nil {
			room = *e.RoomCode
		}
		events.Append([]string{e.Name, string(e.Level), room, e.ID})
	}
	events.Render()

	if len(report.Results) > 0 || len(report.Skipped) > 0 {
		fmt.Printf("Submitted %d results, skipped %d events that already had one.\n", len(report.Results), len(report.Skipped))
	}
}
