package ui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	black  = lipgloss.Color("0")
	red    = lipgloss.Color("1")
	green  = lipgloss.Color("2")
	yellow = lipgloss.Color("3")
	purple = lipgloss.Color("5")
	cyan   = lipgloss.AdaptiveColor{Light: "4", Dark: "6"}
	white  = lipgloss.AdaptiveColor{Light: "0", Dark: "7"}
	gray   = lipgloss.Color("8")
	ltred  = lipgloss.Color("9")
)

// HuhTheme is the theme of all prompts.
var HuhTheme = themeBase16()

func themeBase16() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(gray)
	t.Focused.Title = t.Focused.Title.Foreground(cyan)
	t.Focused.Description = t.Focused.Description.Foreground(gray)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ltred)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ltred)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(white).Background(purple)
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(white).Background(black)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(yellow)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(gray)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Blurred.Title = t.Blurred.Title.Foreground(gray)
	t.Blurred.TextInput.Prompt = t.Blurred.TextInput.Prompt.Foreground(gray)

	return t
}
