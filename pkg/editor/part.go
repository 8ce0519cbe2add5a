package editor

import (
	"github.com/goliatone/go-editors/pkg/dom"
)

// Part is a field editor whose value is edited through a sub-editor pushed on
// the stack instead of a direct control.
type Part struct {
	*Base
	stack *Stack
}

// NewPart constructs a Part editor bound to opts.Stack.
func NewPart(opts Options) *Part {
	return &Part{Base: NewBase(opts), stack: opts.Stack}
}

// Stack returns the stack sub-editors are pushed onto.
func (p *Part) Stack() *Stack { return p.stack }

// SyncFromDOM is a no-op; the value only changes through a sub-editor.
func (p *Part) SyncFromDOM() {}

// CallbackWithValue emits event with value on the next loop turn and then
// runs next. Without a loop both happen immediately.
func (p *Part) CallbackWithValue(event string, value any, next func()) {
	run := func() {
		p.Emit(event, value)
		if next != nil {
			next()
		}
	}
	if p.api == nil || p.api.Loop() == nil {
		run()
		return
	}
	p.api.Loop().Post(run)
}

// SubmitFunc receives the value of a completed sub-editor. It must call next
// exactly once, possibly later, to let the stack pop.
type SubmitFunc func(value any, next func())

// Editor is a stack-mounted editor.
type Editor interface {
	Description() string
	Template() string
	Attach(doc dom.Document) error
	SyncFromDOM() error
	Value() any
	From() FieldEditor
	Submit(value any, next func())
}

// SubEditor holds the state every stack editor shares. Concrete editors embed
// it and add Attach and SyncFromDOM.
type SubEditor struct {
	from     FieldEditor
	submit   SubmitFunc
	value    any
	template string
}

// NewSubEditor returns the shared state for a sub-editor opened from from.
func NewSubEditor(from FieldEditor, submit SubmitFunc) SubEditor {
	return SubEditor{from: from, submit: submit}
}

// Description names the editor after the originating field.
func (s *SubEditor) Description() string {
	if s.from == nil {
		return ""
	}
	return s.from.Field().Slug
}

// Template returns the panel markup loaded for the editor.
func (s *SubEditor) Template() string { return s.template }

// SetTemplate replaces the panel markup.
func (s *SubEditor) SetTemplate(template string) { s.template = template }

// Value returns the editor's working value.
func (s *SubEditor) Value() any { return s.value }

// SetValue replaces the working value.
func (s *SubEditor) SetValue(value any) { s.value = value }

// From returns the field editor that opened this editor.
func (s *SubEditor) From() FieldEditor { return s.from }

// Submit hands value to the submit callback, or continues straight away when
// none was given.
func (s *SubEditor) Submit(value any, next func()) {
	if s.submit == nil {
		if next != nil {
			next()
		}
		return
	}
	s.submit(value, next)
}
