package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"regiontikz/internal/batch"
)

// maxRecent is how many per-file lines the progress view keeps on screen.
const maxRecent = 6

// FileResultMsg reports one finished file to the progress view.
type FileResultMsg struct {
	Outcome batch.FileOutcome
}

// RunDoneMsg tells the progress view the batch run is over.
type RunDoneMsg struct{}

// ProgressModel is the bubbletea model behind the batch progress view.
type ProgressModel struct {
	spinner     spinner.Model
	styles      Styles
	cancel      func()
	total       int
	hideSkipped bool

	done      int
	converted int
	skipped   int
	failed    int
	recent    []string
	stopping  bool
	quitting  bool
}

// NewProgressModel builds the progress view for a run over total files.
// cancel is invoked on Ctrl+C so in-flight conversions can drain.
func NewProgressModel(styles Styles, total int, hideSkipped bool, cancel func()) ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return ProgressModel{
		spinner:     sp,
		styles:      styles,
		cancel:      cancel,
		total:       total,
		hideSkipped: hideSkipped,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case FileResultMsg:
		m.done++
		switch msg.Outcome.Status {
		case batch.StatusConverted:
			m.converted++
		case batch.StatusSkipped:
			m.skipped++
		case batch.StatusFailed:
			m.failed++
		}
		if line := OutcomeLine(m.styles, msg.Outcome, m.hideSkipped); line != "" {
			m.recent = append(m.recent, line)
			if len(m.recent) > maxRecent {
				m.recent = m.recent[len(m.recent)-maxRecent:]
			}
		}
		return m, nil

	case RunDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ProgressModel) View() string {
	if m.quitting {
		// The command prints the final summary once the program exits.
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Converting %d/%d", m.spinner.View(), m.done, m.total)
	fmt.Fprintf(&b, "  %s",
		m.styles.Muted.Render(fmt.Sprintf("(%d converted, %d skipped, %d failed)",
			m.converted, m.skipped, m.failed)))
	if m.stopping {
		b.WriteString("  " + m.styles.Warning.Render("stopping..."))
	}
	b.WriteString("\n")

	for _, line := range m.recent {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// OutcomeLine formats a per-file status line. Skipped files render
// empty when hideSkipped is set.
func OutcomeLine(s Styles, out batch.FileOutcome, hideSkipped bool) string {
	switch out.Status {
	case batch.StatusConverted:
		detail := fmt.Sprintf(" (%d regions, %s)", out.Regions, out.Duration.Round(time.Millisecond))
		return s.Success.Render("✓ ") + out.Input +
			s.Muted.Render(" -> "+out.Output+detail)

	case batch.StatusSkipped:
		if hideSkipped {
			return ""
		}
		return s.Muted.Render("- " + out.Input + " (" + out.Reason + ")")

	case batch.StatusFailed:
		msg := "unknown error"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		return s.Error.Render("✗ ") + out.Input + s.Muted.Render(": ") + s.Error.Render(msg)
	}
	return ""
}

// RunSummaryLine formats the end-of-run summary.
func RunSummaryLine(s Styles, res *batch.Result) string {
	line := fmt.Sprintf("%s converted, %d skipped, %d failed in %s",
		s.Bold.Render(fmt.Sprintf("%d", res.Converted)),
		res.Skipped, res.Failed, res.Duration.Round(time.Millisecond))
	if res.Failed > 0 {
		return s.Error.Render("✗ ") + line
	}
	return s.Success.Render("✓ ") + line
}
