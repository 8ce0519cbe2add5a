package editor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/widgets"
)

// Text binds a field to a textarea.
type Text struct {
	*Base
}

// NewText constructs a Text editor.
func NewText(opts Options) *Text {
	base := NewBase(opts)
	base.SetSelector(NameSelector("textarea", opts.Field.Slug))
	return &Text{Base: base}
}

// CheckBox binds a boolean field to the checked state of its control.
type CheckBox struct {
	*Base
}

// NewCheckBox constructs a CheckBox editor. Non-boolean seeds are coerced.
func NewCheckBox(opts Options) *CheckBox {
	base := NewBase(opts)
	if opts.Value != nil {
		base.SetValue(Truthy(opts.Value))
	}
	return &CheckBox{Base: base}
}

func (c *CheckBox) SyncToDOM() {
	if c.doc == nil {
		return
	}
	c.doc.SetProp(c.selector, "checked", Truthy(c.value))
}

func (c *CheckBox) SyncFromDOM() {
	if !c.attached || c.doc == nil {
		return
	}
	if checked, ok := c.doc.Prop(c.selector, "checked"); ok {
		c.value = checked
	}
}

func (c *CheckBox) SyncValueFrom(record model.Record) {
	value, ok := record.Get(c.field.Slug)
	if !ok || value == nil {
		c.value = nil
		return
	}
	c.value = Truthy(value)
}

// Date binds a date field and enhances its control with the date picker.
type Date struct {
	*Base
}

// NewDate constructs a Date editor. Without a widget registry the defaults
// from widgets.DefaultConfig apply.
func NewDate(opts Options) *Date {
	base := NewBase(opts)
	if base.widgets == nil {
		base.widgets = widgets.NewRegistry(widgets.DefaultConfig())
	}
	return &Date{Base: base}
}

func (d *Date) Attach() error {
	if err := d.Base.Attach(); err != nil {
		return err
	}
	if d.doc == nil {
		return nil
	}
	field := d.field
	if field.Type == "" {
		field.Type = model.FieldTypeDate
	}
	if _, err := d.widgets.Apply(d.doc, field, d.selector); err != nil {
		return err
	}
	return nil
}

// Password never repopulates its control. Its value is nil ("leave
// unchanged") until the user edits the control.
type Password struct {
	*Base
	dirty bool
}

// NewPassword constructs a Password editor.
func NewPassword(opts Options) *Password {
	opts.Value = nil
	return &Password{Base: NewBase(opts)}
}

// SyncToDOM is a no-op; secrets are never written back.
func (p *Password) SyncToDOM() {}

// SyncValueFrom ignores the stored secret so it never becomes the value.
func (p *Password) SyncValueFrom(model.Record) {}

func (p *Password) SyncFromDOM() {
	if !p.attached || p.doc == nil {
		return
	}
	if !p.dirty {
		p.value = nil
		return
	}
	if value, ok := p.doc.Val(p.selector); ok {
		p.value = value
	}
}

func (p *Password) Attach() error {
	if err := p.Base.Attach(); err != nil {
		return err
	}
	p.On(EventEdit, func(Event) {
		p.dirty = true
	})
	return nil
}

// Dirty reports whether the control was edited since attach.
func (p *Password) Dirty() bool { return p.dirty }

// Ref is the value of a denormalized reference field: the foreign key and the
// display payload fetched for it.
type Ref struct {
	ID    string       `json:"id,omitempty"`
	Value model.Record `json:"value,omitempty"`
}

// RefState classifies a Ref.
type RefState int

const (
	Unset RefState = iota
	IDOnly
	IDWithValue
)

func (s RefState) String() string {
	switch s {
	case IDOnly:
		return "id-only"
	case IDWithValue:
		return "id-with-value"
	default:
		return "unset"
	}
}

// CurrentID is the effective identifier: the stored id, else the payload's.
func (r Ref) CurrentID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Value.ID()
}

// State reports where the reference sits in its lifecycle.
func (r Ref) State() RefState {
	switch {
	case r.Value != nil:
		return IDWithValue
	case r.ID != "":
		return IDOnly
	default:
		return Unset
	}
}

// Select moves the reference to id. The payload survives only when it
// belongs to id.
func (r Ref) Select(id string) Ref {
	switch {
	case id == "":
		return Ref{}
	case r.ID != "" && r.ID != id:
		return Ref{ID: id}
	case r.ID == "" && r.Value != nil && r.Value.ID() != "" && r.Value.ID() != id:
		return Ref{ID: id}
	default:
		return Ref{ID: id, Value: r.Value}
	}
}

// ReadRef reads the payload and id keys of field from record.
func ReadRef(record model.Record, field model.Field) Ref {
	value, _ := record.Get(field.Slug)
	payload, _ := model.AsRecord(value)
	return Ref{ID: record.String(field.IDKey()), Value: payload}
}

// WriteTo stores the reference under the payload and id keys of field.
func (r Ref) WriteTo(record model.Record, field model.Field) {
	if record == nil {
		return
	}
	if r.Value == nil {
		record[field.Slug] = nil
	} else {
		record[field.Slug] = r.Value
	}
	if id := r.CurrentID(); id != "" {
		record[field.IDKey()] = id
	} else {
		record[field.IDKey()] = nil
	}
}

// RefOf converts a Ref, a record payload or nil into a Ref.
func RefOf(value any) Ref {
	switch typed := value.(type) {
	case Ref:
		return typed
	case *Ref:
		if typed == nil {
			return Ref{}
		}
		return *typed
	case nil:
		return Ref{}
	default:
		rec, _ := model.AsRecord(typed)
		return Ref{ID: rec.ID(), Value: rec}
	}
}

// Enum binds a foreign-key field to a select control. Its value is a Ref.
type Enum struct {
	*Base
	ref      Ref
	resolver *loop.Token
}

// NewEnum constructs an Enum editor seeded from opts.Value (the payload) and
// opts.IDValue.
func NewEnum(opts Options) *Enum {
	base := NewBase(opts)
	base.SetSelector(NameSelector("select", opts.Field.Slug))
	e := &Enum{Base: base}
	e.ref = Ref{ID: opts.IDValue}
	if rec, ok := model.AsRecord(opts.Value); ok {
		e.ref.Value = rec
	}
	return e
}

// Value returns the current Ref.
func (e *Enum) Value() any { return e.ref }

// Ref returns the current reference.
func (e *Enum) Ref() Ref { return e.ref }

// SetValue accepts a Ref, a record payload or nil.
func (e *Enum) SetValue(value any) { e.ref = RefOf(value) }

// State reports the reference lifecycle state.
func (e *Enum) State() RefState { return e.ref.State() }

func (e *Enum) SyncToDOM() {
	if e.doc == nil {
		return
	}
	e.doc.SetVal(e.selector, e.ref.CurrentID())
}

func (e *Enum) SyncFromDOM() {
	if !e.attached || e.doc == nil {
		return
	}
	id, ok := e.doc.Val(e.selector)
	if !ok {
		return
	}
	next := e.ref.Select(id)
	if next.Value == nil && e.ref.Value != nil {
		e.logger.Debug("reference payload invalidated",
			zap.String("previous", e.ref.CurrentID()), zap.String("id", id))
	}
	e.ref = next
}

// Attach installs the default listeners and emits the current Ref.
func (e *Enum) Attach() error {
	if e.attached {
		return e.Base.Attach()
	}
	e.attached = true
	if e.doc == nil {
		return nil
	}
	notify := func(*dom.Event) { e.Emit(EventEdit, e.ref) }
	e.doc.On(e.selector, "change", notify)
	e.doc.On(e.selector, "input", notify)
	return nil
}

func (e *Enum) SyncsTo() []string {
	return []string{e.field.Slug, e.field.IDKey()}
}

func (e *Enum) SyncValueFrom(record model.Record) {
	e.ref = ReadRef(record, e.field)
}

func (e *Enum) SyncValueTo(record model.Record) {
	e.ref.WriteTo(record, e.field)
}

var errNoAPI = errors.New("editor: no api context")

// Resolve fetches the payload for the current id from the field's target
// model. The payload is applied only if the id has not changed and no newer
// Resolve was issued by the time the response arrives. It returns a nil task
// when there is nothing to fetch.
func (e *Enum) Resolve(ctx context.Context) (*loop.Task[api.Response], error) {
	id := e.ref.CurrentID()
	if id == "" {
		return nil, nil
	}
	if e.api == nil {
		return nil, errNoAPI
	}
	target := e.field.Target
	if target == "" {
		target = e.field.Slug
	}
	url, err := e.api.RouteFor(api.RouteEditorContent, api.Params{"id": id, "model": target})
	if err != nil {
		return nil, err
	}

	e.resolver.Cancel()
	token := loop.NewToken()
	e.resolver = token

	task := e.api.Fetch(ctx, api.RouteEditorContent, url)
	task.Then(func(resp api.Response, err error) {
		if token.Cancelled() || e.ref.CurrentID() != id {
			e.logger.Debug("stale reference payload dropped", zap.String("id", id))
			return
		}
		if err != nil {
			e.logger.Warn("reference payload fetch failed", zap.String("id", id), zap.Error(err))
			return
		}
		rec, err := resp.Record()
		if err != nil || rec == nil {
			return
		}
		e.ref = Ref{ID: id, Value: rec}
		e.Emit(EventSync, e.ref)
	})
	return task, nil
}
