// Package ui provides terminal styling for imp console output.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Adaptive palette for light and dark terminals.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconDry  = "○"
	IconInfo = "ℹ"
)

// ConfigureColor disables styling when noColor is set, NO_COLOR is present,
// or stdout is not a terminal.
func ConfigureColor(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		DisableColor()
	}
}

// DisableColor forces plain ASCII rendering.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func RenderPass(s string) string {
	return PassStyle.Render(s)
}

func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

func RenderFail(s string) string {
	return FailStyle.Render(s)
}

func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderHeader renders a pipeline heading such as "Importing issues ...".
func RenderHeader(s string) string {
	return HeaderStyle.Render(s)
}

// Warning formats a recovered, non-fatal problem.
func Warning(msg string) string {
	return RenderWarn(IconWarn + " " + msg)
}

// Failure formats a fatal problem.
func Failure(msg string) string {
	return RenderFail(IconFail + " " + msg)
}

// Success formats a completed action.
func Success(msg string) string {
	return RenderPass(IconPass + " " + msg)
}

// Info formats a neutral status line such as a resolved repository.
func Info(msg string) string {
	return RenderAccent(IconInfo + " " + msg)
}

// DryRun formats an action that was only displayed.
func DryRun(msg string) string {
	return RenderMuted(IconDry + " " + msg)
}
