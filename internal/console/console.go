// Package console renders user-facing CLI output: the banner, progress
// lines, closing tips and errors. Diagnostics go through slog instead.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

const (
	bannerText = "Narrator"
	bannerFont = "standard"
)

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	tipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
)

// Console writes styled lines to out, and error lines to errOut. The zero
// value is not usable; construct with New.
type Console struct {
	w        io.Writer
	errW     io.Writer
	noBanner bool
}

func New(out, errOut io.Writer, noBanner bool) *Console {
	return &Console{w: out, errW: errOut, noBanner: noBanner}
}

// Banner prints the ASCII art title unless banners are disabled.
func (c *Console) Banner() {
	if c.noBanner {
		return
	}
	art := figure.NewFigure(bannerText, bannerFont, true).String()
	fmt.Fprintln(c.w, bannerStyle.Render(strings.TrimRight(art, "\n")))
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintln(c.w, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.w, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Error(err error) {
	fmt.Fprintln(c.errW, errorStyle.Render("✗ "+err.Error()))
}

// Progress prints one line per finished chunk.
func (c *Console) Progress(done, total int, voice string) {
	fmt.Fprintf(c.w, "%s\n", infoStyle.Render(fmt.Sprintf("  [%d/%d] synthesized (%s)", done, total, voice)))
}

// Speakers prints a speaker listing, one per line.
func (c *Console) Speakers(rows [][2]string) {
	if len(rows) == 0 {
		c.Info("no speakers available")
		return
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(c.w, "%-*s  %s\n", width, r[0], infoStyle.Render(r[1]))
	}
}

// Tips prints usage hints after a run.
func (c *Console) Tips(program string) {
	tips := []string{
		fmt.Sprintf("%s narrate --lang1 en-US --lang2 fr-FR --file text.md   alternate languages chunk by chunk", program),
		fmt.Sprintf("%s narrate --max-chars 200 --text \"...\"                shorter chunks per request", program),
		fmt.Sprintf("%s narrate --voice pocket --speaker-wav me.wav           clone a voice locally", program),
	}
	fmt.Fprintln(c.w, tipStyle.Render("Tips:"))
	for _, t := range tips {
		fmt.Fprintln(c.w, tipStyle.Render("  "+t))
	}
}
