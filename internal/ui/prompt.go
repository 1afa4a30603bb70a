// Package ui is the operator console: prompts and styled output.
package ui

import (
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned by prompts when the operator presses Ctrl-C.
var ErrAborted = huh.ErrUserAborted

// Prompter asks the operator for input. Every call blocks until the operator
// answers.
type Prompter interface {
	// Input asks for a line of text. The answer is trimmed.
	Input(title string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(title string, def bool) (bool, error)
	// Secret asks for a value without echoing it.
	Secret(title string) (string, error)
}

// HuhPrompter implements Prompter with huh forms.
type HuhPrompter struct{}

func (HuhPrompter) Input(title string) (string, error) {
	var resp string
	if err := run(huh.NewInput().Title(title).Value(&resp)); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

func (HuhPrompter) Confirm(title string, def bool) (bool, error) {
	resp := def
	if err := run(huh.NewConfirm().Title(title).Value(&resp)); err != nil {
		return false, err
	}
	return resp, nil
}

func (HuhPrompter) Secret(title string) (string, error) {
	var resp string
	f := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&resp)
	if err := run(f); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

func run(f huh.Field) error {
	return huh.NewForm(huh.NewGroup(f)).WithTheme(HuhTheme).Run()
}
