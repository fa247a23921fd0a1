// Package batch converts whole directory trees of region-result files,
// mirroring the input layout under the output directory. Conversions run
// in parallel, one task per file; skip rules keep re-runs cheap.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"regiontikz/internal/convert"
)

// ErrNoInputs reports that the input directory holds nothing to convert.
var ErrNoInputs = errors.New("batch: no region-result files found")

// Status classifies one file's fate in a run.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Config controls a batch run.
type Config struct {
	InputDir  string
	OutputDir string

	// OutputExt replaces the .regionresult extension (default "tex").
	OutputExt string

	// Recursive walks the whole input tree instead of one directory.
	Recursive bool

	// All converts even files whose output looks up to date.
	All bool

	// NoOverwrite never replaces an existing output.
	NoOverwrite bool

	// NoFolderCreation fails files whose output directory is missing
	// instead of creating the mirrored tree.
	NoFolderCreation bool

	// LineLimit skips inputs with more lines (default 100000, 0 = off):
	// a refinement dump that big produces diagrams TeX chokes on anyway.
	LineLimit int

	// Workers caps parallel conversions (default NumCPU).
	Workers int
}

// FileOutcome is the per-file result of a run.
type FileOutcome struct {
	Input    string
	Output   string
	Status   Status
	Reason   string // for skips
	Regions  int
	Duration time.Duration
	Err      error
}

// Result is a completed batch run.
type Result struct {
	RunID     string
	Outcomes  []FileOutcome // discovery order
	Converted int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Runner executes batch runs with a fixed configuration.
type Runner struct {
	cfg    Config
	conv   *convert.Converter
	log    *zap.Logger
	ledger *Ledger
	onFile func(FileOutcome)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithLedger records outcomes in a ledger and switches the freshness
// check from mtimes to content hashes.
func WithLedger(l *Ledger) RunnerOption {
	return func(r *Runner) { r.ledger = l }
}

// WithProgress calls fn as each file completes. fn must be safe for
// concurrent calls.
func WithProgress(fn func(FileOutcome)) RunnerOption {
	return func(r *Runner) { r.onFile = fn }
}

// NewRunner builds a Runner. Zero config fields get their defaults.
func NewRunner(cfg Config, conv *convert.Converter, opts ...RunnerOption) *Runner {
	if cfg.OutputExt == "" {
		cfg.OutputExt = "tex"
	}
	cfg.OutputExt = strings.TrimPrefix(strings.ToLower(cfg.OutputExt), ".")
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}

	r := &Runner{cfg: cfg, conv: conv, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run discovers and converts every region-result file under the input
// directory. Per-file failures are recorded, not fatal; the caller
// decides what a run with failures means.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	files, err := Discover(r.cfg.InputDir, r.cfg.Recursive)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, r.cfg.InputDir)
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Outcomes: make([]FileOutcome, len(files)),
	}
	r.log.Info("batch run starting",
		zap.String("run_id", res.RunID),
		zap.Int("files", len(files)),
		zap.Int("workers", r.cfg.Workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, file := range files {
		g.Go(func() error {
			out := r.ProcessFile(gctx, res.RunID, file)
			res.Outcomes[i] = out
			if r.onFile != nil {
				r.onFile(out)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in the outcomes

	for _, out := range res.Outcomes {
		switch out.Status {
		case StatusConverted:
			res.Converted++
		case StatusSkipped:
			res.Skipped++
		case StatusFailed:
			res.Failed++
		}
	}
	res.Duration = time.Since(start)

	r.log.Info("batch run finished",
		zap.String("run_id", res.RunID),
		zap.Int("converted", res.Converted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// ProcessFile applies the skip rules and converts one file. Run calls it
// for every discovered file; the watch package calls it per event.
func (r *Runner) ProcessFile(ctx context.Context, runID, input string) FileOutcome {
	out := FileOutcome{Input: input, Status: StatusFailed}
	start := time.Now()

	output, err := r.OutputPath(input)
	if err != nil {
		out.Err = err
		return out
	}
	out.Output = output

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	data, err := convert.ReadInput(input)
	if err != nil {
		out.Err = err
		r.record(runID, out, "")
		return out
	}

	if r.cfg.LineLimit > 0 {
		if lines := countLines(data); lines > r.cfg.LineLimit {
			out.Status = StatusSkipped
			out.Reason = fmt.Sprintf("%d lines exceed the limit of %d", lines, r.cfg.LineLimit)
			return out
		}
	}

	hash := ""
	if r.ledger != nil {
		hash = fmt.Sprintf("%016x", xxhash.Sum64(data))
	}

	if skip, reason := r.shouldSkip(input, output, hash); skip {
		out.Status = StatusSkipped
		out.Reason = reason
		return out
	}

	if err := r.ensureOutputDir(output); err != nil {
		out.Err = err
		r.record(runID, out, hash)
		return out
	}

	markup, regions, err := r.conv.Document(data, convert.Stem(input))
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", input, err)
		r.record(runID, out, hash)
		return out
	}
	out.Regions = regions

	if err := convert.WriteAtomic(output, []byte(markup)); err != nil {
		out.Err = err
		r.record(runID, out, hash)
		return out
	}

	out.Status = StatusConverted
	out.Duration = time.Since(start)
	r.record(runID, out, hash)
	r.log.Debug("converted",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("regions", regions))
	return out
}

// shouldSkip decides whether an existing output makes conversion
// unnecessary. With a ledger the check compares content hashes; without
// one it falls back to mtime ordering.
func (r *Runner) shouldSkip(input, output, hash string) (bool, string) {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false, ""
	}
	if r.cfg.NoOverwrite {
		return true, "output exists"
	}
	if r.cfg.All {
		return false, ""
	}

	if r.ledger != nil {
		last, ok, err := r.ledger.LastGoodHash(input)
		if err != nil {
			r.log.Warn("ledger lookup failed, converting anyway", zap.String("input", input), zap.Error(err))
			return false, ""
		}
		if ok && last == hash {
			return true, "input unchanged since last conversion"
		}
		return false, ""
	}

	inInfo, err := os.Stat(input)
	if err != nil {
		return false, ""
	}
	if outInfo.ModTime().After(inInfo.ModTime()) {
		return true, "output newer than input"
	}
	return false, ""
}

func (r *Runner) ensureOutputDir(output string) error {
	dir := filepath.Dir(output)
	if r.cfg.NoFolderCreation {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("output directory %s missing and folder creation is disabled", dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func (r *Runner) record(runID string, out FileOutcome, hash string) {
	if r.ledger == nil {
		return
	}
	rec := ConversionRecord{
		RunID:     runID,
		Input:     out.Input,
		InputHash: hash,
		Output:    out.Output,
		Regions:   out.Regions,
		Duration:  out.Duration,
		Status:    out.Status,
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := r.ledger.Record(rec); err != nil {
		r.log.Warn("failed to record conversion", zap.String("input", out.Input), zap.Error(err))
	}
}

// OutputPath maps an input file to its mirrored output location.
func (r *Runner) OutputPath(input string) (string, error) {
	rel, err := filepath.Rel(r.cfg.InputDir, input)
	if err != nil {
		return "", fmt.Errorf("input %s outside input directory: %w", input, err)
	}
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".gz", ".zst":
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + r.cfg.OutputExt
	return filepath.Join(r.cfg.OutputDir, rel), nil
}

// Discover lists the region-result files under dir in sorted order.
func Discover(dir string, recursive bool) ([]string, error) {
	var files []string

	if recursive {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsRegionResult(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() && IsRegionResult(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsRegionResult reports whether name looks like a region-result file,
// possibly compressed.
func IsRegionResult(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".regionresult") ||
		strings.HasSuffix(name, ".regionresult.gz") ||
		strings.HasSuffix(name, ".regionresult.zst")
}

func countLines(data []byte) int {
	n := bytes.Count(data, []byte("\n"))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n
}
