package workflow

import (
	"context"
	"strings"
)

// Mode is the top-level way of selecting a chat.
type Mode int

const (
	ModeBrowse Mode = iota + 1
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeBrowse:
		return "Select from a server's channel list"
	case ModeSearch:
		return "Find channels by searching for a user"
	}
	return "unknown"
}

// Run repeats the mode menu until the operator declines to continue. It
// returns nil when the operator is done, ui.ErrAborted on Ctrl-C, or the
// context error when the session was interrupted.
func (w *Workflow) Run(ctx context.Context) error {
	for {
		if err := w.runOnce(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		again, err := w.ask.Confirm("Perform another export?", true)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

func (w *Workflow) runOnce(ctx context.Context) error {
	w.con.Panel("Select Mode", "1. "+ModeBrowse.String()+"\n2. "+ModeSearch.String())
	mode, err := w.chooseMode()
	if err != nil {
		return err
	}

	switch mode {
	case ModeSearch:
		err = w.Search(ctx)
	default:
		err = w.Browse(ctx)
	}
	if err != nil && !isFatal(err) {
		// a prompt failed for a reason other than the operator leaving
		w.report(err, "Workflow failed")
		return nil
	}
	return err
}

func (w *Workflow) chooseMode() (Mode, error) {
	for {
		in, err := w.ask.Input("How would you like to select a channel to archive? [1]")
		if err != nil {
			return 0, err
		}
		switch strings.TrimSpace(in) {
		case "", "1":
			return ModeBrowse, nil
		case "2":
			return ModeSearch, nil
		}
		w.con.Warn("Invalid choice: enter 1 or 2.")
	}
}
