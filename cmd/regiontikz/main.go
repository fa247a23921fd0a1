package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "regiontikz",
	Short: "Turn storm-pars region results into TikZ diagrams",
	Long: `regiontikz converts parameter-space partitions produced by storm-pars
(.regionresult files) into TikZ vector diagrams.

Each region becomes a rectangle styled by its outcome: crosshatch dots on
green for AllSat, crosshatch on red for AllViolated, and so on. Numeric
outcomes are mapped onto a color gradient. The output compiles standalone
with pdflatex, or as a fragment for embedding in a paper.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// convertCmd converts one document
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a single region-result file",
	Long: `Converts one region-result document to TikZ markup.

Reads stdin when no input file is given and writes stdout when no output
file is given, so it composes with shell pipelines:

  storm-pars ... --printfullresult | regiontikz convert > diagram.tex
  regiontikz convert -i dice.regionresult -o dice.tex --merge`,
	RunE: runConvert,
}

// batchCmd converts a directory tree
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Convert every region-result file under a directory",
	Long: `Converts all region-result files under the input directory, mirroring
its layout below the output directory. Files whose output is already up
to date are skipped; --all forces reconversion and --no-overwrite never
replaces an existing file.

With --ledger, conversions are recorded in a SQLite database and
freshness is judged by content hash instead of mtimes.

Example:
  regiontikz batch -I results/ -O diagrams/ --recursive --workers 8`,
	RunE: runBatch,
}

// watchCmd keeps an output tree in sync
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and convert files as they change",
	Long: `Performs an initial batch pass, then watches the input directory and
converts region-result files shortly after they change. Useful next to a
running storm-pars refinement loop.

Stop with Ctrl+C.`,
	RunE: runWatch,
}

// summaryCmd reports coverage statistics
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show coverage statistics for a region-result file",
	Long: `Parses a region-result document and reports how much of the parameter
space each outcome covers, without generating a diagram.`,
	RunE: runSummary,
}

// statsCmd reports ledger aggregates
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show conversion history from a batch ledger",
	RunE:  runStats,
}

// stylesCmd prints the default style map
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Print the default outcome styles",
	Long: `Prints the default outcome-to-TikZ style map. Save it, edit it, and
pass it back with --styles to customize diagram appearance:

  regiontikz styles --format yaml > mystyles.yaml
  regiontikz convert -i dice.regionresult --styles mystyles.yaml`,
	RunE: runStyles,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Convert flags
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Input file (default: stdin)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file (default: stdout)")
	addRenderFlags(convertCmd)

	// Batch flags
	addBatchFlags(batchCmd)
	addRenderFlags(batchCmd)
	batchCmd.Flags().BoolVar(&batchPlain, "plain", false, "Line output instead of the progress view")

	// Watch flags
	addBatchFlags(watchCmd)
	addRenderFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Settle window before converting a changed file")

	// Summary flags
	summaryCmd.Flags().StringVarP(&summaryInput, "input", "i", "", "Input file (default: stdin)")
	summaryCmd.Flags().BoolVar(&summaryRaw, "raw", false, "Plain Markdown output without terminal rendering")

	// Stats flags
	statsCmd.Flags().StringVar(&statsLedger, "ledger", "", "Ledger database file (required)")
	statsCmd.Flags().IntVar(&statsRuns, "runs", 10, "How many recent runs to list")
	statsCmd.MarkFlagRequired("ledger")

	// Styles flags
	stylesCmd.Flags().StringVar(&stylesFormat, "format", "json", "Output format: json or yaml")

	// Add commands to root
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(stylesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
