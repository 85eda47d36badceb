package cmd

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/conneroisu/strata/internal/config"
	"github.com/conneroisu/strata/internal/logging"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate the project on every change",
	Long: `Watch the project file and re-run full-tree validation whenever it
changes. Runs until interrupted.

Examples:
  strata watch
  strata watch --project services.yml`,
	RunE: runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	dir := filepath.Dir(cfg.Project)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target, err := filepath.Abs(cfg.Project)
	if err != nil {
		return err
	}

	validateOnce(ctx, cmd, cfg, logger)

	// Debounce bursts of write events from a single save.
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	logger.Info(ctx, "watching project file", "path", cfg.Project)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn(ctx, err, "watch error")
		case <-pending:
			validateOnce(ctx, cmd, cfg, logger)
		}
	}
}

func validateOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger logging.Logger) {
	project, err := loadProject(cfg, logger)
	if err != nil {
		logger.Error(ctx, err, "project load failed")
		return
	}

	for _, rootID := range project.RootIDs {
		root, ok := project.Manager.FindByID(rootID)
		if !ok {
			continue
		}
		report := project.Manager.Validate(rootID)
		printReport(cmd, root.Name, report)
	}
}
