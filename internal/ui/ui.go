// Package ui provides terminal styling helpers for the CLI. Output is
// styled only when stdout is a TTY and NO_COLOR is unset.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// ColorEnabled reports whether styled output should be produced.
func ColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if !ColorEnabled() {
		return s
	}
	return style.Render(s)
}

// RenderPass styles success output green.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn styles warnings yellow.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail styles failures red.
func RenderFail(s string) string { return render(failStyle, s) }

// RenderAccent styles headings and progress markers.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderDim styles secondary detail.
func RenderDim(s string) string { return render(dimStyle, s) }
