package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/schollz/progressbar/v3"

	"github.com/chrisedwards/discord-archive/internal/channels"
	"github.com/chrisedwards/discord-archive/internal/discord"
)

// Console writes operator-facing output. Styles degrade to plain text when
// the writer is not a terminal.
type Console struct {
	w io.Writer

	rule    lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	success lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	panel   lipgloss.Style
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		rule:    r.NewStyle().Bold(true).Foreground(cyan),
		info:    r.NewStyle().Foreground(cyan),
		warn:    r.NewStyle().Foreground(yellow),
		err:     r.NewStyle().Bold(true).Foreground(red),
		success: r.NewStyle().Foreground(green),
		muted:   r.NewStyle().Foreground(gray),
		header:  r.NewStyle().Bold(true),
		panel:   r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cyan).Padding(0, 1),
	}
}

// Rule prints a section separator with a title.
func (c *Console) Rule(title string) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.rule.Render("── "+title+" ──"))
}

// Print prints an unstyled line.
func (c *Console) Print(format string, a ...any) {
	fmt.Fprintf(c.w, format+"\n", a...)
}

func (c *Console) Info(format string, a ...any) {
	fmt.Fprintln(c.w, c.info.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Warn(format string, a ...any) {
	fmt.Fprintln(c.w, c.warn.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Error(format string, a ...any) {
	fmt.Fprintln(c.w, c.err.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Success(format string, a ...any) {
	fmt.Fprintln(c.w, c.success.Render(fmt.Sprintf(format, a...)))
}

// Panel prints body inside a bordered box headed by title.
func (c *Console) Panel(title, body string) {
	fmt.Fprintln(c.w, c.panel.Render(c.header.Render(title)+"\n"+body))
}

// Numbered prints a title followed by a 1-indexed list.
func (c *Console) Numbered(title string, items []string) {
	fmt.Fprintln(c.w, c.header.Render(title))
	for i, it := range items {
		fmt.Fprintf(c.w, "  %d. %s\n", i+1, it)
	}
}

// RenderList prints a selection list grouped by section and category. The
// printed numbers are the selection indices.
func (c *Console) RenderList(l *channels.List) {
	if d := l.Direct(); d != nil {
		fmt.Fprintf(c.w, "%d. %s\n", d.Index, entryLabel(d.Chat))
	}
	for _, sec := range l.Sections() {
		t := tree.Root(c.header.Render(sec.Title)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(c.muted)
		for _, g := range sec.Groups {
			sub := tree.Root(c.info.Render(g.Title())).Enumerator(tree.RoundedEnumerator)
			for _, e := range g.Entries {
				sub.Child(fmt.Sprintf("%d. %s", e.Index, entryLabel(e.Chat)))
			}
			t.Child(sub)
		}
		fmt.Fprintln(c.w, t.String())
	}
}

func entryLabel(chat discord.Chat) string {
	if th, ok := chat.(*discord.Thread); ok && th.Parent != nil {
		return th.Label() + " (thread in " + th.Parent.Label() + ")"
	}
	return chat.Label()
}

// Progress returns a progress bar for total items.
func (c *Console) Progress(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(c.w) }),
	)
}
