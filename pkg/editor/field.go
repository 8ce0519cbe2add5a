package editor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/widgets"
)

// FieldEditor mediates between one field's value and its control.
type FieldEditor interface {
	Field() model.Field
	Selector() string
	Value() any
	SetValue(value any)
	SyncToDOM()
	SyncFromDOM()
	Attach() error
	SyncsTo() []string
	SyncValueFrom(record model.Record)
	SyncValueTo(record model.Record)
	On(event string, fn Listener)
}

// Options carries everything a constructor may need. Only Field is required.
type Options struct {
	Field    model.Field
	Model    model.Model
	Document dom.Document
	API      api.Context
	Stack    *Stack
	Widgets  *widgets.Registry
	Logger   *zap.Logger
	Value    any
	// IDValue seeds the identifier of reference fields.
	IDValue string
}

// Base implements the default field editor contract. Variants embed it and
// replace individual operations.
type Base struct {
	field    model.Field
	model    model.Model
	doc      dom.Document
	api      api.Context
	widgets  *widgets.Registry
	logger   *zap.Logger
	selector string
	value    any
	attached bool
	events   Emitter
}

var _ FieldEditor = (*Base)(nil)

// NewBase constructs the default editor for opts.Field.
func NewBase(opts Options) *Base {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Base{
		field:    opts.Field,
		model:    opts.Model,
		doc:      opts.Document,
		api:      opts.API,
		widgets:  opts.Widgets,
		logger:   logger.With(zap.String("field", opts.Field.Slug)),
		selector: NameSelector("", opts.Field.Slug),
		value:    opts.Value,
	}
}

// NameSelector builds a selector for a named control, optionally restricted to
// a tag.
func NameSelector(tag, name string) string {
	return fmt.Sprintf("%s[name=%q]", tag, name)
}

// Field returns the field descriptor.
func (b *Base) Field() model.Field { return b.field }

// Model returns the owning model descriptor.
func (b *Base) Model() model.Model { return b.model }

// Document returns the document the editor is bound to.
func (b *Base) Document() dom.Document { return b.doc }

// API returns the routing context.
func (b *Base) API() api.Context { return b.api }

// Logger returns the field-scoped logger.
func (b *Base) Logger() *zap.Logger { return b.logger }

// Selector identifies the control.
func (b *Base) Selector() string { return b.selector }

// SetSelector overrides the selector. Variants call it at construction.
func (b *Base) SetSelector(selector string) { b.selector = selector }

// Value returns the current semantic value.
func (b *Base) Value() any { return b.value }

// SetValue replaces the semantic value without touching the DOM.
func (b *Base) SetValue(value any) { b.value = value }

// Attached reports whether Attach has run.
func (b *Base) Attached() bool { return b.attached }

// On registers a listener for editor events.
func (b *Base) On(event string, fn Listener) { b.events.On(event, fn) }

// Emit dispatches an editor event carrying value.
func (b *Base) Emit(name string, value any) {
	b.events.Emit(Event{Name: name, Field: b.field, Value: value})
}

// SyncToDOM writes the value into the control. Writing the same value twice
// leaves the control unchanged; a missing control is ignored.
func (b *Base) SyncToDOM() {
	if b.doc == nil {
		return
	}
	b.doc.SetVal(b.selector, FormatValue(b.value))
}

// SyncFromDOM reads the control into the value. Before Attach, and while the
// control is absent, it does nothing.
func (b *Base) SyncFromDOM() {
	if !b.attached || b.doc == nil {
		return
	}
	if value, ok := b.doc.Val(b.selector); ok {
		b.value = value
	}
}

// Attach installs change and input listeners that emit EventEdit.
func (b *Base) Attach() error {
	if b.attached {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, b.field.Slug)
	}
	b.attached = true
	if b.doc == nil {
		return nil
	}
	notify := func(*dom.Event) { b.Emit(EventEdit, b.value) }
	bound := b.doc.On(b.selector, "change", notify)
	b.doc.On(b.selector, "input", notify)
	if bound == 0 {
		b.logger.Debug("control absent at attach", zap.String("selector", b.selector))
	}
	return nil
}

// SyncsTo lists the parent record keys the editor contributes.
func (b *Base) SyncsTo() []string {
	return []string{b.field.Slug}
}

// SyncValueFrom hydrates the value from a flat record.
func (b *Base) SyncValueFrom(record model.Record) {
	value, _ := record.Get(b.field.Slug)
	b.value = value
}

// SyncValueTo writes the value into a flat record.
func (b *Base) SyncValueTo(record model.Record) {
	if record == nil {
		return
	}
	record[b.field.Slug] = b.value
}

// FormatValue renders a semantic value as control text.
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		if typed.IsZero() {
			return ""
		}
		return typed.Format(time.DateOnly)
	case *time.Time:
		if typed == nil {
			return ""
		}
		return FormatValue(*typed)
	default:
		return model.FormatID(typed)
	}
}

// Truthy interprets a semantic value as a checkbox state.
func Truthy(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err == nil {
			return parsed
		}
		return strings.EqualFold(strings.TrimSpace(typed), "on")
	case float64:
		return typed != 0
	case int:
		return typed != 0
	default:
		return false
	}
}
