package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"regiontikz/cmd/regiontikz/ui"
	"regiontikz/internal/batch"
	"regiontikz/internal/convert"
	"regiontikz/internal/watch"
)

var watchDebounce time.Duration

func runWatch(cmd *cobra.Command, args []string) error {
	conv, err := newConverter(cmd, convert.WithMaxRegions(batchLineLimit))
	if err != nil {
		return err
	}
	opts, closeLedger, err := batchRunnerOptions()
	if err != nil {
		return err
	}
	defer closeLedger()

	s := ui.DefaultStyles()
	var mu sync.Mutex
	printOutcome := func(out batch.FileOutcome) {
		if line := ui.OutcomeLine(s, out, batchHideSkipped); line != "" {
			mu.Lock()
			fmt.Println(line)
			mu.Unlock()
		}
	}

	cfg := batchConfig()
	opts = append(opts, batch.WithProgress(printOutcome))
	runner := batch.NewRunner(cfg, conv, opts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	// Initial pass; an empty input directory just means nothing to
	// convert yet.
	if res, err := runner.Run(ctx); err != nil {
		if !errors.Is(err, batch.ErrNoInputs) {
			return err
		}
	} else {
		fmt.Println(ui.RunSummaryLine(s, res))
	}
	if ctx.Err() != nil {
		return nil
	}

	w, err := watch.New(cfg.InputDir, cfg.Recursive, runner,
		watch.WithLogger(logger),
		watch.WithDebounce(watchDebounce),
		watch.WithProgress(printOutcome))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	fmt.Println(s.Muted.Render(fmt.Sprintf("watching %s (Ctrl+C to stop)", cfg.InputDir)))
	<-ctx.Done()
	w.Stop()

	stats := w.GetStats()
	fmt.Printf("%s %d converted, %d skipped, %d failed\n",
		s.Bold.Render("watch session:"), stats.Converted, stats.Skipped, stats.Failed)
	return nil
}
