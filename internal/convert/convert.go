// Package convert wires the parser and the renderer into a file-to-file
// pipeline: read (possibly compressed) input, parse, render, write the
// diagram atomically. The core stays pure; everything touching the
// filesystem lives here.
package convert

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"regiontikz/internal/regionresult"
	"regiontikz/internal/tikz"
)

// Converter turns region-result text into TikZ documents under a fixed
// render configuration. It is safe for concurrent use.
type Converter struct {
	render       tikz.Config
	allowUnknown bool
	maxRegions   int
	log          *zap.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) { c.log = log }
}

// WithUnknownOutcomes passes unrecognized outcome tokens through to the
// renderer instead of rejecting the document.
func WithUnknownOutcomes() Option {
	return func(c *Converter) { c.allowUnknown = true }
}

// WithMaxRegions rejects documents carrying more regions than n.
// 0 means no cap.
func WithMaxRegions(n int) Option {
	return func(c *Converter) { c.maxRegions = n }
}

// New builds a Converter rendering with cfg.
func New(cfg tikz.Config, opts ...Option) *Converter {
	c := &Converter{render: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes one completed conversion.
type Result struct {
	Input    string
	Output   string
	Regions  int
	Duration time.Duration
}

// Document converts raw region-result text. title becomes the document
// title unless the render configuration overrides it. Parse failures
// surface as *regionresult.FormatError, render failures as
// *tikz.RenderError; nothing is produced in either case.
func (c *Converter) Document(raw []byte, title string) (string, int, error) {
	var opts []regionresult.Option
	if c.allowUnknown {
		opts = append(opts, regionresult.WithUnknownOutcomes())
	}
	if c.maxRegions > 0 {
		opts = append(opts, regionresult.WithMaxRegions(c.maxRegions))
	}
	doc, err := regionresult.Parse(string(raw), opts...)
	if err != nil {
		return "", 0, err
	}
	doc.Title = title

	markup, err := tikz.Render(doc, c.render)
	if err != nil {
		return "", 0, err
	}
	return markup, len(doc.Regions), nil
}

// File converts inputPath into outputPath. The default title is the
// input file stem. Nothing is written when parsing or rendering fails.
func (c *Converter) File(ctx context.Context, inputPath, outputPath string) (Result, error) {
	start := time.Now()
	res := Result{Input: inputPath, Output: outputPath}

	raw, err := ReadInput(inputPath)
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	markup, regions, err := c.Document(raw, Stem(inputPath))
	if err != nil {
		return res, fmt.Errorf("%s: %w", inputPath, err)
	}
	res.Regions = regions
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := WriteAtomic(outputPath, []byte(markup)); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)

	c.log.Debug("converted",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("regions", regions),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// FileTo converts inputPath and streams the diagram to w instead of a
// file, for stdout use.
func (c *Converter) FileTo(ctx context.Context, inputPath string, w io.Writer) (Result, error) {
	start := time.Now()
	res := Result{Input: inputPath}

	raw, err := ReadInput(inputPath)
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	markup, regions, err := c.Document(raw, Stem(inputPath))
	if err != nil {
		return res, fmt.Errorf("%s: %w", inputPath, err)
	}
	res.Regions = regions

	if _, err := io.WriteString(w, markup); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	res.Duration = time.Since(start)
	return res, nil
}

// ReaderTo converts everything from r (already decompressed) to w, with
// an explicit title. Used for stdin pipelines, where there is no file
// name to derive a title from.
func (c *Converter) ReaderTo(r io.Reader, title string, w io.Writer) (Result, error) {
	start := time.Now()
	var res Result

	raw, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("failed to read input: %w", err)
	}
	markup, regions, err := c.Document(raw, title)
	if err != nil {
		return res, err
	}
	res.Regions = regions

	if _, err := io.WriteString(w, markup); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	res.Duration = time.Since(start)
	return res, nil
}
