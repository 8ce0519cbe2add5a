package editor

import "errors"

var (
	// ErrAlreadyAttached is returned when Attach is called a second time.
	ErrAlreadyAttached = errors.New("editor: already attached")
	// ErrSubmitPending is returned when the stack is waiting for a submit
	// continuation and cannot accept pushes or completions.
	ErrSubmitPending = errors.New("editor: submit pending")
	// ErrStackEmpty is returned when completing or cancelling an empty stack.
	ErrStackEmpty = errors.New("editor: stack is empty")
	// ErrUnknownFieldType is returned when no constructor handles a field type.
	ErrUnknownFieldType = errors.New("editor: unknown field type")
)
