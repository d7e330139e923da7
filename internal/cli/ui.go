package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// renderer writes styled command output
type renderer struct {
	out    io.Writer
	styles styles
}

type styles struct {
	ok      lipgloss.Style
	warn    lipgloss.Style
	error   lipgloss.Style
	label   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
}

func newRenderer(out io.Writer, disableColor bool) *renderer {
	profile := termenv.EnvColorProfile()
	if disableColor || !isTerminal(out) {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)

	return &renderer{
		out: out,
		styles: styles{
			ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
			warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
			error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			heading: lipgloss.NewStyle().Bold(true),
			muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		},
	}
}

func (r *renderer) ok(format string, args ...any) {
	r.println(r.styles.ok.Render("✔") + " " + fmt.Sprintf(format, args...))
}

func (r *renderer) fail(format string, args ...any) {
	r.println(r.styles.error.Render("✖") + " " + fmt.Sprintf(format, args...))
}

func (r *renderer) warn(format string, args ...any) {
	r.println(r.styles.warn.Render("!") + " " + fmt.Sprintf(format, args...))
}

func (r *renderer) heading(text string) {
	r.println(r.styles.heading.Render(text))
}

func (r *renderer) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	r.println(r.styles.label.Render(fmt.Sprintf("%-12s", label+":")) + " " + value)
}

// check prints a pass/fail line for one structure check
func (r *renderer) check(passed bool, label string) {
	if passed {
		r.ok("%s", label)
		return
	}
	r.fail("%s", label)
}

// block prints multi-line text indented under the previous line
func (r *renderer) block(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		r.println("    " + r.styles.muted.Render(line))
	}
}

func (r *renderer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.label).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...)
	r.println(t.Render())
}

func (r *renderer) println(message string) {
	fmt.Fprintln(r.out, message)
}
