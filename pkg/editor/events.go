package editor

import "github.com/goliatone/go-editors/pkg/model"

// Event names emitted by editors.
const (
	// EventEdit fires on every user edit of an attached control. Consumers use
	// it for dirty tracking.
	EventEdit = "caribou:edit"
	// EventSync fires after a sub-editor wrote a new value into a field.
	EventSync = "sync"
)

// Event is delivered to Listeners.
type Event struct {
	Name  string
	Field model.Field
	Value any
}

// Listener receives editor events.
type Listener func(Event)

// Emitter is a minimal synchronous event dispatcher.
type Emitter struct {
	listeners map[string][]Listener
}

// On registers fn for name.
func (e *Emitter) On(name string, fn Listener) {
	if fn == nil {
		return
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]Listener)
	}
	e.listeners[name] = append(e.listeners[name], fn)
}

// Emit delivers ev to the listeners registered for ev.Name in order.
func (e *Emitter) Emit(ev Event) {
	for _, fn := range append([]Listener(nil), e.listeners[ev.Name]...) {
		fn(ev)
	}
}
