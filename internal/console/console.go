// Package console renders launcher progress for the person who started it.
// Nothing written here is durable; the log sink owns the record.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/envlaunch/internal/commands"
)

// Console reads prompts from in and writes them, along with command
// listings, to out. Progress echo goes to echo.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	echo  io.Writer
	quiet bool

	head  lipgloss.Style
	alert lipgloss.Style
	box   lipgloss.Style

	step  lipgloss.Style
	info  lipgloss.Style
	err   lipgloss.Style
	muted lipgloss.Style
}

// New builds a console. Each stream gets colour only when it is a terminal.
func New(in io.Reader, out, echo io.Writer, quiet bool) *Console {
	o := lipgloss.NewRenderer(out)
	e := lipgloss.NewRenderer(echo)
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		echo:  echo,
		quiet: quiet,
		head:  o.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		alert: o.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		box: o.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1),
		step:  e.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		info:  e.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		err:   e.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		muted: e.NewStyle().Foreground(lipgloss.Color("#777777")),
	}
}

// Running announces a step before it is dispatched.
func (c *Console) Running(step commands.Step) {
	if c == nil || c.quiet {
		return
	}
	fmt.Fprintf(c.echo, "%s %s\n", c.step.Render("▶ "+step.Name), c.muted.Render(step.Invocation.String()))
}

// Info echoes an informational trace line.
func (c *Console) Info(format string, args ...any) {
	if c == nil || c.quiet {
		return
	}
	fmt.Fprintln(c.echo, c.info.Render("• "+strings.TrimSpace(fmt.Sprintf(format, args...))))
}

// Error echoes an error trace line.
func (c *Console) Error(format string, args ...any) {
	if c == nil || c.quiet {
		return
	}
	fmt.Fprintln(c.echo, c.err.Render("✗ "+strings.TrimSpace(fmt.Sprintf(format, args...))))
}

// Close is a no-op; the console does not own its streams.
func (c *Console) Close() error { return nil }

// WaitForExit shows message and blocks until one line (or EOF) is read.
// It always writes, even when quiet, so a double-clicked launcher does not
// vanish without explanation.
func (c *Console) WaitForExit(message string) {
	if c == nil {
		return
	}
	prompt := c.box.Render(c.alert.Render(message)) + "\nPress Enter to exit..."
	_, _ = io.WriteString(c.out, prompt)
	_, _ = c.in.ReadString('\n')
}

// PrintSpec lists the commands a launch would dispatch in dir.
func (c *Console) PrintSpec(spec commands.Spec, p commands.Platform, dir string) {
	if c == nil {
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", c.head.Render("platform"), p)
	fmt.Fprintf(c.out, "%s %s\n", c.head.Render("directory"), dir)
	for _, step := range spec.Steps() {
		fmt.Fprintf(c.out, "%s %s\n", c.head.Render(step.Name), step.Invocation.String())
	}
}
