package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"regiontikz/cmd/regiontikz/ui"
	"regiontikz/internal/batch"
	"regiontikz/internal/convert"
)

// Batch flags shared by batch and watch
var (
	batchInputDir         string
	batchOutputDir        string
	batchOutputExt        string
	batchRecursive        bool
	batchAll              bool
	batchNoOverwrite      bool
	batchNoFolderCreation bool
	batchLineLimit        int
	batchHideSkipped      bool
	batchWorkers          int
	batchLedgerPath       string
	batchPlain            bool
)

func addBatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringVarP(&batchInputDir, "input-dir", "I", "", "Directory holding region-result files (required)")
	f.StringVarP(&batchOutputDir, "output-dir", "O", "", "Directory for generated diagrams (required)")
	f.StringVar(&batchOutputExt, "output-extension", "tex", "Extension for generated files")
	f.BoolVar(&batchRecursive, "recursive", false, "Convert subdirectories too")
	f.BoolVar(&batchAll, "all", false, "Reconvert files whose output is up to date")
	f.BoolVar(&batchNoOverwrite, "no-overwrite", false, "Never replace an existing output file")
	f.BoolVar(&batchNoFolderCreation, "no-folder-creation", false, "Fail instead of creating missing output directories")
	f.IntVar(&batchLineLimit, "line-limit", 100000, "Skip inputs with more lines (0 disables)")
	f.BoolVar(&batchHideSkipped, "hide-skipped", false, "Do not report skipped files")
	f.IntVar(&batchWorkers, "workers", 0, "Parallel conversions (default: number of CPUs)")
	f.StringVar(&batchLedgerPath, "ledger", "", "Record conversions in this SQLite ledger")
	cmd.MarkFlagRequired("input-dir")
	cmd.MarkFlagRequired("output-dir")
}

func batchConfig() batch.Config {
	return batch.Config{
		InputDir:         batchInputDir,
		OutputDir:        batchOutputDir,
		OutputExt:        batchOutputExt,
		Recursive:        batchRecursive,
		All:              batchAll,
		NoOverwrite:      batchNoOverwrite,
		NoFolderCreation: batchNoFolderCreation,
		LineLimit:        batchLineLimit,
		Workers:          batchWorkers,
	}
}

// batchRunnerOptions opens the ledger (when configured) and assembles
// the runner options shared by batch and watch. The returned closer is
// a no-op without a ledger.
func batchRunnerOptions() ([]batch.RunnerOption, func(), error) {
	opts := []batch.RunnerOption{batch.WithLogger(logger)}
	closer := func() {}

	if batchLedgerPath != "" {
		led, err := batch.OpenLedger(batchLedgerPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, batch.WithLedger(led))
		closer = func() { led.Close() }
	}
	return opts, closer, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	// A record is one line, so the line limit doubles as a region cap
	// at parse time.
	conv, err := newConverter(cmd, convert.WithMaxRegions(batchLineLimit))
	if err != nil {
		return err
	}
	opts, closeLedger, err := batchRunnerOptions()
	if err != nil {
		return err
	}
	defer closeLedger()

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

	s := ui.DefaultStyles()
	if batchPlain || !stdoutIsTerminal() {
		return runBatchPlain(ctx, s, conv, opts)
	}
	return runBatchTTY(ctx, cancel, s, conv, opts)
}

// runBatchPlain prints one line per file; the mode for logs and pipes.
func runBatchPlain(ctx context.Context, s ui.Styles, conv *convert.Converter, opts []batch.RunnerOption) error {
	var mu sync.Mutex
	opts = append(opts, batch.WithProgress(func(out batch.FileOutcome) {
		if line := ui.OutcomeLine(s, out, batchHideSkipped); line != "" {
			mu.Lock()
			fmt.Println(line)
			mu.Unlock()
		}
	}))

	runner := batch.NewRunner(batchConfig(), conv, opts...)
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(ui.RunSummaryLine(s, res))
	return failIfAnyFailed(res)
}

// runBatchTTY drives the bubbletea progress view.
func runBatchTTY(ctx context.Context, cancel context.CancelFunc, s ui.Styles, conv *convert.Converter, opts []batch.RunnerOption) error {
	cfg := batchConfig()

	// Count up front so the view can show progress against a total.
	files, err := batch.Discover(cfg.InputDir, cfg.Recursive)
	if err != nil {
		return err
	}

	prog := tea.NewProgram(ui.NewProgressModel(s, len(files), batchHideSkipped, cancel))
	opts = append(opts, batch.WithProgress(func(out batch.FileOutcome) {
		prog.Send(ui.FileResultMsg{Outcome: out})
	}))
	runner := batch.NewRunner(cfg, conv, opts...)

	var res *batch.Result
	var runErr error
	go func() {
		res, runErr = runner.Run(ctx)
		prog.Send(ui.RunDoneMsg{})
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		return fmt.Errorf("progress view failed: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Println(ui.RunSummaryLine(s, res))
	return failIfAnyFailed(res)
}

func failIfAnyFailed(res *batch.Result) error {
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", res.Failed, len(res.Outcomes))
	}
	return nil
}

func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
