package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrPanelNotOpened is returned when an asset field did not open its
	// editor panel.
	ErrPanelNotOpened = errors.New("tui: asset editor did not open")
)
