// Package report renders the end-of-run summary of a batch.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/pdfbatch/internal/orchestrator"
)

const boxWidth = 60

func titleColor() lipgloss.Color  { return lipgloss.Color("39") }
func borderColor() lipgloss.Color { return lipgloss.Color("240") }
func labelColor() lipgloss.Color  { return lipgloss.Color("245") }
func warnColor() lipgloss.Color   { return lipgloss.Color("214") }

// Summary is the data shown after a run.
type Summary struct {
	RunID     string
	Documents int
	InputDir  string
	OutputDir string
	Method    string
	Lang      string
	Workers   int
	BatchSize int
	Duration  time.Duration
	Empty     bool
}

// FromResult builds a Summary from an orchestrator result. A nil result
// yields the zero Summary.
func FromResult(res *orchestrator.Result) Summary {
	if res == nil {
		return Summary{}
	}
	return Summary{
		RunID:     res.RunID,
		Documents: len(res.Documents),
		InputDir:  res.Options.InputDir,
		OutputDir: res.Options.OutputDir,
		Method:    res.Options.Method,
		Lang:      res.Options.Lang,
		Workers:   res.Options.Workers,
		BatchSize: res.Options.BatchSize,
		Duration:  res.Duration,
		Empty:     res.Empty,
	}
}

type row struct {
	label string
	value string
}

func (s Summary) rows() []row {
	p := message.NewPrinter(language.English)
	lang := s.Lang
	if lang == "" {
		lang = "(auto)"
	}
	return []row{
		{"Documents", p.Sprintf("%d", s.Documents)},
		{"Input", s.InputDir},
		{"Output", s.OutputDir},
		{"Method", s.Method},
		{"Language", lang},
		{"Workers", p.Sprintf("%d", s.Workers)},
		{"Batch size", p.Sprintf("%d", s.BatchSize)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Run ID", s.RunID},
	}
}

// Render writes the summary to w, as a styled box when w is a terminal and
// as plain lines otherwise.
func Render(w io.Writer, s Summary) error {
	if isWriterTerminal(w) {
		return renderStyled(w, s)
	}
	return renderPlain(w, s)
}

func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func renderPlain(w io.Writer, s Summary) error {
	var b strings.Builder
	b.WriteString("BATCH SUMMARY\n")
	if s.Empty {
		b.WriteString("No PDF files found\n")
	}
	for _, r := range s.rows() {
		fmt.Fprintf(&b, "%s: %s\n", r.label, r.value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderStyled(w io.Writer, s Summary) error {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor())
	labelStyle := lipgloss.NewStyle().Foreground(labelColor()).Width(12)
	warnStyle := lipgloss.NewStyle().Bold(true).Foreground(warnColor())
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(borderColor()).
		Padding(0, 1).
		Width(boxWidth)

	lines := []string{titleStyle.Render("BATCH SUMMARY"), ""}
	if s.Empty {
		lines = append(lines, warnStyle.Render("No PDF files found"), "")
	}
	for _, r := range s.rows() {
		lines = append(lines, labelStyle.Render(r.label)+r.value)
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}
