package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"regiontikz/cmd/regiontikz/ui"
	"regiontikz/internal/convert"
	"regiontikz/internal/styles"
	"regiontikz/internal/tikz"
)

var (
	convertInput  string
	convertOutput string
)

// Render flags shared by convert, batch, and watch
var (
	flagWidth        float64
	flagHeight       float64
	flagXParam       string
	flagYParam       string
	flagFixes        []string
	flagXSplit       int
	flagYSplit       int
	flagXTickPrec    int
	flagYTickPrec    int
	flagPrecision    int
	flagLineWidth    float64
	flagStylesFile   string
	flagTitle        string
	flagNoTitle      bool
	flagNoLegend     bool
	flagFragment     bool
	flagInvertX      bool
	flagInvertY      bool
	flagMerge        bool
	flagGradientLow  string
	flagGradientHigh string
	flagGradientMin  float64
	flagGradientMax  float64
	flagAllowUnknown bool
)

func addRenderFlags(cmd *cobra.Command) {
	def := tikz.DefaultConfig()
	f := cmd.Flags()

	f.Float64Var(&flagWidth, "width", def.Width, "Diagram width in cm")
	f.Float64Var(&flagHeight, "height", def.Height, "Diagram height in cm")
	f.StringVar(&flagXParam, "x-param", "", "Parameter on the x axis (default: first declared)")
	f.StringVar(&flagYParam, "y-param", "", "Parameter on the y axis (default: second declared)")
	f.StringArrayVar(&flagFixes, "fix", nil, "Fix a parameter to a value, e.g. --fix r=0.5 (repeatable)")
	f.IntVar(&flagXSplit, "x-split", def.XSplit, "Number of x-axis tick intervals")
	f.IntVar(&flagYSplit, "y-split", def.YSplit, "Number of y-axis tick intervals")
	f.IntVar(&flagXTickPrec, "x-tick-precision", def.XTickPrecision, "Decimal places on x-axis tick labels")
	f.IntVar(&flagYTickPrec, "y-tick-precision", def.YTickPrecision, "Decimal places on y-axis tick labels")
	f.IntVar(&flagPrecision, "precision", def.Precision, "Decimal places on emitted coordinates")
	f.Float64Var(&flagLineWidth, "line-width", def.LineWidth, "Region outline width in mm")
	f.StringVar(&flagStylesFile, "styles", "", "JSON or YAML file overriding outcome styles (default "+styles.DefaultPath+" when present)")
	f.StringVar(&flagTitle, "title", "", "Diagram title (default: input file stem)")
	f.BoolVar(&flagNoTitle, "no-title", false, "Omit the title node")
	f.BoolVar(&flagNoLegend, "no-legend", false, "Omit the legend")
	f.BoolVar(&flagFragment, "fragment", false, "Emit a bare tikzpicture without the standalone preamble")
	f.BoolVar(&flagInvertX, "invert-x", false, "Flip the x axis")
	f.BoolVar(&flagInvertY, "invert-y", false, "Flip the y axis")
	f.BoolVar(&flagMerge, "merge", false, "Merge adjacent regions with equal outcomes")
	f.StringVar(&flagGradientLow, "gradient-low", def.Gradient.Low, "Gradient color for the lowest value")
	f.StringVar(&flagGradientHigh, "gradient-high", def.Gradient.High, "Gradient color for the highest value")
	f.Float64Var(&flagGradientMin, "gradient-min", 0, "Pin the gradient to this minimum value")
	f.Float64Var(&flagGradientMax, "gradient-max", 1, "Pin the gradient to this maximum value")
	f.BoolVar(&flagAllowUnknown, "allow-unknown", false, "Accept outcome labels outside the known vocabulary")
}

// buildRenderConfig assembles the renderer configuration from flags.
func buildRenderConfig(cmd *cobra.Command) (tikz.Config, error) {
	cfg := tikz.DefaultConfig()
	cfg.Width = flagWidth
	cfg.Height = flagHeight
	cfg.XParam = flagXParam
	cfg.YParam = flagYParam
	cfg.XSplit = flagXSplit
	cfg.YSplit = flagYSplit
	cfg.XTickPrecision = flagXTickPrec
	cfg.YTickPrecision = flagYTickPrec
	cfg.Precision = flagPrecision
	cfg.LineWidth = flagLineWidth
	cfg.Title = flagTitle
	cfg.ShowTitle = !flagNoTitle
	cfg.Legend = !flagNoLegend
	cfg.Standalone = !flagFragment
	cfg.InvertX = flagInvertX
	cfg.InvertY = flagInvertY
	cfg.MergeAdjacent = flagMerge
	cfg.Gradient.Low = flagGradientLow
	cfg.Gradient.High = flagGradientHigh

	if cmd.Flags().Changed("gradient-min") || cmd.Flags().Changed("gradient-max") {
		if !cmd.Flags().Changed("gradient-min") || !cmd.Flags().Changed("gradient-max") {
			return cfg, fmt.Errorf("--gradient-min and --gradient-max must be given together")
		}
		cfg.Gradient.Min = flagGradientMin
		cfg.Gradient.Max = flagGradientMax
		cfg.Gradient.HasRange = true
	}

	if len(flagFixes) > 0 {
		fix, err := parseFixes(flagFixes)
		if err != nil {
			return cfg, err
		}
		cfg.Fix = fix
	}

	// Style files degrade to the built-in styles when unreadable; only a
	// file that exists but does not parse is fatal.
	stylesPath := flagStylesFile
	if stylesPath == "" {
		stylesPath = styles.DefaultPath
	}
	switch m, err := styles.Load(stylesPath); {
	case err == nil:
		cfg.Styles = m
	case !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission):
		return cfg, err
	case flagStylesFile != "":
		logger.Warn("style file not readable, using built-in styles",
			zap.String("path", stylesPath), zap.Error(err))
	default:
		logger.Debug("no style file found, using built-in styles", zap.String("path", stylesPath))
	}

	return cfg, nil
}

func parseFixes(pairs []string) (map[string]float64, error) {
	fix := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --fix %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --fix value in %q: %w", pair, err)
		}
		fix[name] = v
	}
	return fix, nil
}

// newConverter builds the converter all conversion commands share.
func newConverter(cmd *cobra.Command, extra ...convert.Option) (*convert.Converter, error) {
	cfg, err := buildRenderConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts := []convert.Option{convert.WithLogger(logger)}
	if flagAllowUnknown {
		opts = append(opts, convert.WithUnknownOutcomes())
	}
	opts = append(opts, extra...)
	return convert.New(cfg, opts...), nil
}

// runConvert converts one document: stdin or -i to stdout or -o.
func runConvert(cmd *cobra.Command, args []string) error {
	conv, err := newConverter(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if convertInput == "" {
		if convertOutput == "" {
			_, err := conv.ReaderTo(os.Stdin, "", os.Stdout)
			return err
		}
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		markup, regions, err := conv.Document(raw, "")
		if err != nil {
			return err
		}
		if err := convert.WriteAtomic(convertOutput, []byte(markup)); err != nil {
			return err
		}
		printConverted("stdin", convertOutput, regions, 0)
		return nil
	}

	if convertOutput == "" {
		_, err := conv.FileTo(ctx, convertInput, os.Stdout)
		return err
	}

	res, err := conv.File(ctx, convertInput, convertOutput)
	if err != nil {
		return err
	}
	printConverted(res.Input, res.Output, res.Regions, res.Duration)
	return nil
}

func printConverted(input, output string, regions int, d time.Duration) {
	s := ui.DefaultStyles()
	detail := fmt.Sprintf(" (%d regions", regions)
	if d > 0 {
		detail += fmt.Sprintf(", %s", d.Round(time.Millisecond))
	}
	detail += ")"
	fmt.Println(s.Success.Render("✓ ") + input + s.Muted.Render(" -> "+output+detail))
}
