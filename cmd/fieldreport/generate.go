package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridlab/fieldreport/pipeline"
)

func generateCmd(configPath, logLevel *string) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Assemble and compile the campaign report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, runErr := pipeline.NewFromConfig(cfg, logger).Run(ctx)
			if err := printSummary(summary, jsonOut); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("run failed: %w", runErr)
			}
			if summary.Status == pipeline.StatusFailed {
				return fmt.Errorf("run failed: master artifact did not compile")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

// printSummary writes the run summary to stdout, as JSON or as a short
// human-readable report.
func printSummary(s *pipeline.RunSummary, jsonOut bool) error {
	if s == nil {
		return nil
	}
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Printf("Run %s: %s (stage: %s)\n", s.RunID, s.Status, s.Stage)
	if s.Error != "" {
		fmt.Printf("  error: %s\n", s.Error)
	}
	for _, d := range s.Skipped {
		fmt.Printf("  skipped: %s\n", d)
	}
	for _, d := range s.Fields {
		fmt.Printf("  field: %s\n", d)
	}
	for _, d := range s.Figures {
		fmt.Printf("  figure: %s\n", d)
	}
	for _, d := range s.Orphans {
		fmt.Printf("  orphan: %s\n", d)
	}
	for _, a := range s.FailedArtifacts() {
		fmt.Printf("  failed artifact: %s\n    %s\n", a.Job.TexPath, a.Err)
	}
	return nil
}
