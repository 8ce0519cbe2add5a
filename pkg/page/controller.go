package page

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/editor"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/widgets"
)

// Option configures a Controller.
type Option func(*Controller)

// WithAPI sets the routing context handed to editors.
func WithAPI(ctx api.Context) Option {
	return func(c *Controller) {
		c.api = ctx
	}
}

// WithStack sets the editor stack reference editors push onto.
func WithStack(stack *editor.Stack) Option {
	return func(c *Controller) {
		c.stack = stack
	}
}

// WithWidgets sets the widget registry handed to editors.
func WithWidgets(reg *widgets.Registry) Option {
	return func(c *Controller) {
		c.widgets = reg
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns the field editors of one page for the page's lifetime.
type Controller struct {
	model    model.Model
	doc      dom.Document
	registry *editor.Registry
	api      api.Context
	stack    *editor.Stack
	widgets  *widgets.Registry
	logger   *zap.Logger

	editors  []editor.FieldEditor
	dirty    map[string]struct{}
	attached bool
}

// New builds one editor per field of m through registry.
func New(m model.Model, doc dom.Document, registry *editor.Registry, options ...Option) (*Controller, error) {
	if registry == nil {
		return nil, fmt.Errorf("page: editor registry is required")
	}
	c := &Controller{
		model:    m,
		doc:      doc,
		registry: registry,
		logger:   zap.NewNop(),
		dirty:    make(map[string]struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.With(zap.String("model", m.Slug))

	for _, field := range m.Fields {
		if field.Model == "" {
			field.Model = m.Slug
		}
		ed, err := registry.New(editor.Options{
			Field:    field,
			Model:    m,
			Document: doc,
			API:      c.api,
			Stack:    c.stack,
			Widgets:  c.widgets,
			Logger:   c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("page: field %q: %w", field.Slug, err)
		}
		c.editors = append(c.editors, ed)
	}
	return c, nil
}

// Editors returns the editors in field order.
func (c *Controller) Editors() []editor.FieldEditor {
	return append([]editor.FieldEditor(nil), c.editors...)
}

// Editor returns the editor bound to slug.
func (c *Controller) Editor(slug string) (editor.FieldEditor, bool) {
	for _, ed := range c.editors {
		if ed.Field().Slug == slug {
			return ed, true
		}
	}
	return nil, false
}

// Attach attaches every editor. Edits mark the field dirty and are synced
// back from the DOM; sub-editor results are pushed into the DOM.
func (c *Controller) Attach() error {
	if c.attached {
		return editor.ErrAlreadyAttached
	}
	c.attached = true
	for _, ed := range c.editors {
		if err := ed.Attach(); err != nil {
			return fmt.Errorf("page: attach %q: %w", ed.Field().Slug, err)
		}
		ed := ed
		slug := ed.Field().Slug
		ed.On(editor.EventEdit, func(editor.Event) {
			c.dirty[slug] = struct{}{}
			ed.SyncFromDOM()
		})
		ed.On(editor.EventSync, func(editor.Event) {
			c.dirty[slug] = struct{}{}
			ed.SyncToDOM()
		})
	}
	c.logger.Debug("page attached", zap.Int("editors", len(c.editors)))
	return nil
}

// Load hydrates every editor from record, renders it and resets dirty
// tracking.
func (c *Controller) Load(record model.Record) {
	for _, ed := range c.editors {
		ed.SyncValueFrom(record)
		ed.SyncToDOM()
	}
	c.dirty = make(map[string]struct{})
	c.logger.Debug("page loaded", zap.String("id", record.ID()))
}

// Collect syncs every editor from the DOM and serializes the page into a flat
// record keyed by each editor's SyncsTo keys.
func (c *Controller) Collect() model.Record {
	out := make(model.Record)
	for _, ed := range c.editors {
		ed.SyncFromDOM()
		ed.SyncValueTo(out)
	}
	return out
}

// Dirty lists the fields edited since the last Load, sorted.
func (c *Controller) Dirty() []string {
	out := make([]string, 0, len(c.dirty))
	for slug := range c.dirty {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}
