package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gridlab/fieldreport/pipeline"
)

// debounce absorbs the burst of write events spreadsheet applications emit
// on save before a regeneration starts.
const debounce = 500 * time.Millisecond

// watchCmd regenerates the report whenever the campaign workbook changes.
func watchCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the report whenever the workbook changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the directory: editors replace the file on save,
			// which drops a watch on the file itself.
			workbookDir := filepath.Dir(cfg.Input.Workbook)
			if err := watcher.Add(workbookDir); err != nil {
				return fmt.Errorf("watch %s: %w", workbookDir, err)
			}

			p := pipeline.NewFromConfig(cfg, logger)
			runOnce(ctx, p, logger)

			target := filepath.Base(cfg.Input.Workbook)
			var timer *time.Timer
			pending := make(chan struct{}, 1)

			logger.Info("Watching for workbook changes", slog.String("workbook", cfg.Input.Workbook))
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Base(event.Name) != target {
						continue
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
						continue
					}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("Watcher error", slog.String("error", err.Error()))
				case <-pending:
					runOnce(ctx, p, logger)
				}
			}
		},
	}
}

// runOnce runs the pipeline and reports the outcome without ending the
// watch loop: a failed run just waits for the next change.
func runOnce(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger) {
	summary, err := p.Run(ctx)
	if err != nil {
		logger.Error("Generation failed", slog.String("error", err.Error()))
		return
	}
	if err := printSummary(summary, false); err != nil {
		logger.Warn("Failed to print summary", slog.String("error", err.Error()))
	}
}
