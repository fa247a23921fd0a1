package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"regiontikz/cmd/regiontikz/ui"
	"regiontikz/internal/convert"
	"regiontikz/internal/regionresult"
	"regiontikz/internal/summary"
)

var (
	summaryInput string
	summaryRaw   bool
)

func runSummary(cmd *cobra.Command, args []string) error {
	var raw []byte
	var title string
	var err error

	if summaryInput == "" {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		raw, err = convert.ReadInput(summaryInput)
		if err != nil {
			return err
		}
		title = convert.Stem(summaryInput)
	}

	// Statistics count unknown labels as their own outcome instead of
	// rejecting the document.
	doc, err := regionresult.Parse(string(raw), regionresult.WithUnknownOutcomes())
	if err != nil {
		if summaryInput != "" {
			return fmt.Errorf("%s: %w", summaryInput, err)
		}
		return err
	}
	doc.Title = title

	stats, err := summary.Compute(doc)
	if err != nil {
		return err
	}
	md := stats.Markdown()

	if summaryRaw {
		fmt.Print(md)
		return nil
	}

	rendered, err := renderMarkdown(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func renderMarkdown(md string) (string, error) {
	styleOpt := glamour.WithStylePath("light")
	if ui.DetectTheme().IsDark {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(80))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
