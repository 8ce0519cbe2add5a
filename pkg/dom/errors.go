package dom

import "errors"

var (
	// ErrInvalidSelector is returned when a selector cannot be compiled.
	ErrInvalidSelector = errors.New("dom: invalid selector")
	// ErrNoMatch is returned by Scope when the selector matches nothing.
	ErrNoMatch = errors.New("dom: selector matched no element")
)
