package asset

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/editor"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/widgets"
)

// ModelSlug is the content model assets are stored under.
const ModelSlug = "asset"

// FieldEditor binds an asset reference field. The value is an editor.Ref
// whose payload is the asset record; it only changes through the Editor
// pushed by UploadOrChoose.
type FieldEditor struct {
	*editor.Part
	ref      editor.Ref
	widgets  *widgets.Registry
	pageSize int
	observer RefreshObserver
	attached bool
	opening  bool
}

var _ editor.FieldEditor = (*FieldEditor)(nil)

// FieldOption configures a FieldEditor.
type FieldOption func(*FieldEditor)

// WithPageSize sets the page size used by the asset chooser.
func WithPageSize(size int) FieldOption {
	return func(f *FieldEditor) {
		if size > 0 {
			f.pageSize = size
		}
	}
}

// WithRefreshObserver reports asset list refresh outcomes to obs.
func WithRefreshObserver(obs RefreshObserver) FieldOption {
	return func(f *FieldEditor) {
		f.observer = obs
	}
}

// NewFieldEditor constructs an asset field editor.
func NewFieldEditor(opts editor.Options, options ...FieldOption) *FieldEditor {
	f := &FieldEditor{
		Part:     editor.NewPart(opts),
		ref:      editor.RefOf(opts.Value),
		widgets:  opts.Widgets,
		pageSize: DefaultPageSize,
	}
	if opts.IDValue != "" {
		f.ref.ID = opts.IDValue
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Register adds the asset editor to reg.
func Register(reg *editor.Registry, options ...FieldOption) error {
	return reg.Register(model.FieldTypeAsset, func(opts editor.Options) (editor.FieldEditor, error) {
		if opts.Stack == nil {
			return nil, fmt.Errorf("asset: field %q needs an editor stack", opts.Field.Slug)
		}
		return NewFieldEditor(opts, options...), nil
	})
}

// Value returns the current editor.Ref.
func (f *FieldEditor) Value() any { return f.ref }

// Ref returns the current reference.
func (f *FieldEditor) Ref() editor.Ref { return f.ref }

// SetValue accepts a Ref, an asset record or nil.
func (f *FieldEditor) SetValue(value any) { f.ref = editor.RefOf(value) }

// SyncToDOM points the preview image at the asset when a payload is present.
func (f *FieldEditor) SyncToDOM() {
	doc := f.Document()
	if doc == nil || f.ref.Value == nil {
		return
	}
	doc.SetAttr(f.previewSelector(), "src", "/"+f.ref.Value.Path())
}

// Attach binds the upload-or-choose links of the field.
func (f *FieldEditor) Attach() error {
	if f.attached {
		return fmt.Errorf("%w: %s", editor.ErrAlreadyAttached, f.Field().Slug)
	}
	f.attached = true
	doc := f.Document()
	if doc == nil {
		return nil
	}
	doc.On(f.TriggerSelector(), "click", func(ev *dom.Event) {
		ev.PreventDefault()
		if f.Stack() == nil || f.Stack().Busy() || f.opening {
			return
		}
		f.UploadOrChoose(context.Background())
	})
	return nil
}

func (f *FieldEditor) SyncsTo() []string {
	return []string{f.Field().Slug, f.Field().IDKey()}
}

func (f *FieldEditor) SyncValueFrom(record model.Record) {
	f.ref = editor.ReadRef(record, f.Field())
}

func (f *FieldEditor) SyncValueTo(record model.Record) {
	f.ref.WriteTo(record, f.Field())
}

// UploadOrChoose opens an asset Editor for the field. The editor is pushed
// once its panel has loaded; a reference holding only an id is loaded by that
// id. It returns false so the originating click does not navigate.
func (f *FieldEditor) UploadOrChoose(ctx context.Context) bool {
	client := f.API()
	if client == nil || f.Stack() == nil {
		f.Logger().Warn("asset editor needs an api context and a stack")
		return false
	}
	assetModel, _ := client.Model(ModelSlug)

	ed := NewEditor(EditorOptions{
		From:     f,
		Field:    f.Field(),
		Model:    assetModel,
		API:      client,
		Widgets:  f.widgets,
		Logger:   f.Logger(),
		PageSize: f.pageSize,
		Observer: f.observer,
		Context:  ctx,
		Submit: func(value any, next func()) {
			rec, _ := model.AsRecord(value)
			f.ref = editor.Ref{ID: rec.ID(), Value: rec}
			f.CallbackWithValue(editor.EventSync, f.ref, next)
		},
	})
	switch {
	case f.ref.Value != nil:
		ed.SetValue(f.ref.Value)
	case f.ref.CurrentID() != "":
		ed.SetValue(model.Record{"id": f.ref.CurrentID()})
	}

	f.opening = true
	ed.Load(ctx).Then(func(resp api.Response, err error) {
		f.opening = false
		if err != nil {
			ed.lastErr = err
			f.Logger().Warn("asset editor load failed", zap.Error(err))
			return
		}
		ed.SetTemplate(resp.Template)
		if rec, err := resp.Record(); err == nil && rec != nil {
			ed.SetValue(rec)
		}
		if err := f.Stack().Push(ed); err != nil {
			f.Logger().Warn("asset editor not opened", zap.Error(err))
		}
	})
	return false
}

func (f *FieldEditor) previewSelector() string {
	return "img#" + f.Field().Slug
}

// TriggerSelector matches the link that opens the asset editor.
func (f *FieldEditor) TriggerSelector() string {
	owner := f.Model().Slug
	if owner == "" {
		owner = f.Field().Model
	}
	return fmt.Sprintf("#%s-%s a", owner, f.Field().Slug)
}
