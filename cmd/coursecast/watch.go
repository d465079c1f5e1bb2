package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"coursecast/internal/source"
)

const watchDebounce = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the feed whenever the library changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		run, err := prepareRun(logger)
		if err != nil {
			return err
		}

		if err := run.generate(false, flagOutput); err != nil {
			return err
		}

		watcher, err := source.Watch(run.root, watchDebounce, logger, func() {
			if err := run.generate(false, flagOutput); err != nil {
				logger.Printf("regenerate error: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", run.root, err)
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Printf("error closing watcher: %v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Printf("watching %s", run.root)
		<-ctx.Done()
		logger.Println("shutdown complete")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagOutput, "output", "feed.xml", "path of the generated feed document")
}
