package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridlab/fieldreport/outline"
	"github.com/gridlab/fieldreport/record"
	"github.com/gridlab/fieldreport/workbook"
)

// validateCmd checks the workbook and configuration without writing any
// output: it normalizes the rows and builds the outline, then reports what
// a generate run would do.
func validateCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the workbook and config without writing output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rows, err := workbook.NewXLSX(cfg.Input.Workbook, cfg.Input.Sheet, logger).Read(ctx)
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}

			var cols []record.Column
			for _, c := range cfg.Input.Columns {
				cols = append(cols, record.Column{Name: c.Name, Type: record.FieldType(c.Type), Layout: c.Layout})
			}
			records, diags, err := record.NewNormalizer(cfg.Input.IDField, cols).Normalize(rows)
			if err != nil {
				return err
			}

			o, err := outline.NewBuilder(cfg.Outline.OrderField, cfg.Outline.FrontMatter).Build(records)
			if err != nil {
				return err
			}

			fmt.Printf("%d rows, %d records, %d sections\n", len(rows), len(records), len(o.Sections))
			for _, d := range diags {
				fmt.Printf("  %s\n", d)
			}
			for _, sec := range o.RecordSections() {
				fmt.Printf("  section %s\n", sec.ID)
			}
			return nil
		},
	}
}
