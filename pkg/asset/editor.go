package asset

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/editor"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/widgets"
)

// Templates rendered by the editor-content endpoint.
const (
	TemplateAsset          = "_asset.html"
	TemplateExistingAssets = "_existing_assets.html"
)

// DefaultPageSize is the number of assets fetched per page.
const DefaultPageSize = 50

// Controls inside the asset panel.
const (
	selectorUpload       = "#upload-asset"
	selectorUploadButton = "#upload-button"
	selectorSearch       = "#asset-search"
	selectorSearchButton = "#asset-search-button"
	selectorClearButton  = "#asset-clear-button"
	selectorCurrentImage = "#current-image"
	selectorAssets       = "#assets"
	selectorPageLinks    = "#assets a"
	selectorImages       = `select[name="images"]`
)

// Refresh outcomes.
const (
	RefreshApplied = "applied"
	RefreshStale   = "stale"
	RefreshError   = "error"
)

// RefreshObserver receives one call per completed asset list refresh.
type RefreshObserver interface {
	ObserveRefresh(outcome string)
}

// EditorOptions configures an Editor.
type EditorOptions struct {
	From     editor.FieldEditor
	Submit   editor.SubmitFunc
	Field    model.Field
	Model    model.Model
	API      api.Context
	Widgets  *widgets.Registry
	Logger   *zap.Logger
	PageSize int
	Observer RefreshObserver
	// Context scopes the requests issued by panel controls.
	Context context.Context
}

// Editor uploads new assets and chooses among existing ones, page by page.
// Every fetched page is merged into an id lookup used to resolve the
// selection; the lookup is never a source of truth.
type Editor struct {
	editor.SubEditor
	field    model.Field
	model    model.Model
	api      api.Context
	widgets  *widgets.Registry
	logger   *zap.Logger
	pageSize int
	observer RefreshObserver
	ctx      context.Context

	doc        dom.Document
	assetsByID map[string]model.Record
	refresh    *loop.Token
	lastErr    error
}

var _ editor.Editor = (*Editor)(nil)

// NewEditor constructs an asset Editor.
func NewEditor(opts EditorOptions) *Editor {
	e := &Editor{
		SubEditor:  editor.NewSubEditor(opts.From, opts.Submit),
		field:      opts.Field,
		model:      opts.Model,
		api:        opts.API,
		widgets:    opts.Widgets,
		logger:     opts.Logger,
		pageSize:   opts.PageSize,
		observer:   opts.Observer,
		ctx:        opts.Context,
		assetsByID: make(map[string]model.Record),
	}
	if e.model.Slug == "" {
		e.model.Slug = ModelSlug
	}
	if e.widgets == nil {
		e.widgets = widgets.NewRegistry(widgets.DefaultConfig())
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.pageSize <= 0 {
		e.pageSize = DefaultPageSize
	}
	if e.ctx == nil {
		e.ctx = context.Background()
	}
	return e
}

// Description names the editor after the field it edits.
func (e *Editor) Description() string { return e.field.Slug }

// LastError returns the most recent transport or decoding failure.
func (e *Editor) LastError() error { return e.lastErr }

// Cached returns the asset with id from the lookup.
func (e *Editor) Cached(id string) (model.Record, bool) {
	rec, ok := e.assetsByID[id]
	return rec, ok
}

// CachedIDs lists the ids in the lookup, sorted.
func (e *Editor) CachedIDs() []string {
	ids := make([]string, 0, len(e.assetsByID))
	for id := range e.assetsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load fetches the editor panel for the current asset, or a blank one.
func (e *Editor) Load(ctx context.Context) *loop.Task[api.Response] {
	id := ""
	if rec, ok := model.AsRecord(e.Value()); ok {
		id = rec.ID()
	}
	url, err := e.api.RouteFor(api.RouteEditorContent, api.Params{
		"id":       id,
		"model":    e.model.Slug,
		"template": TemplateAsset,
	})
	if err != nil {
		return loop.Resolved(e.api.Loop(), api.Response{}, err)
	}
	return e.api.Fetch(ctx, api.RouteEditorContent, url)
}

// Attach wires the panel controls and requests the first page of assets.
func (e *Editor) Attach(doc dom.Document) error {
	e.doc = doc
	if doc == nil {
		return nil
	}
	doc.On(selectorUpload, "change", func(*dom.Event) {
		e.Upload(e.ctx)
	})
	doc.On(selectorUploadButton, "click", func(ev *dom.Event) {
		ev.PreventDefault()
		e.Upload(e.ctx)
	})
	doc.On(selectorSearchButton, "click", func(ev *dom.Event) {
		ev.PreventDefault()
		e.RefreshAssets(e.ctx, 0)
	})
	doc.On(selectorClearButton, "click", func(ev *dom.Event) {
		ev.PreventDefault()
		e.Clear()
	})
	e.RefreshAssets(e.ctx, 0)
	return nil
}

// Upload submits the file selected in the upload control and empties the
// control, so each selection is sent once. The response replaces the value,
// the preview follows it and the asset list reloads. It returns nil when no
// file is selected.
func (e *Editor) Upload(ctx context.Context) *loop.Task[api.Response] {
	if e.doc == nil {
		return nil
	}
	files := e.doc.Files(selectorUpload)
	if len(files) == 0 {
		return nil
	}
	url, err := e.api.RouteFor(api.RouteUploadAsset, nil)
	if err != nil {
		e.lastErr = err
		return loop.Resolved(e.api.Loop(), api.Response{}, err)
	}
	task := e.api.Upload(ctx, api.RouteUploadAsset, url, files[0])
	e.doc.SetFiles(selectorUpload)
	task.Then(func(resp api.Response, err error) {
		if err == nil {
			var rec model.Record
			if rec, err = resp.Record(); err == nil && rec != nil {
				e.SetValue(rec)
				e.doc.SetAttr(selectorCurrentImage, "src", "/"+rec.Path())
			}
		}
		if err != nil {
			e.lastErr = err
			e.logger.Warn("asset upload failed", zap.String("file", files[0].Name), zap.Error(err))
			return
		}
		e.Load(ctx).Then(func(_ api.Response, err error) {
			if err != nil {
				e.lastErr = err
				return
			}
			e.RefreshAssets(ctx, 0)
		})
	})
	return task
}

// RefreshAssets fetches one page of assets. Every response is merged into
// the lookup; only the response to the latest request replaces the panel.
func (e *Editor) RefreshAssets(ctx context.Context, page int) *loop.Task[api.Response] {
	params := api.Params{
		"model":    e.model.Slug,
		"template": TemplateExistingAssets,
		"page":     strconv.Itoa(page),
		"size":     strconv.Itoa(e.pageSize),
	}
	if e.doc != nil {
		if search, ok := e.doc.Val(selectorSearch); ok {
			params["search"] = search
		}
	}
	url, err := e.api.RouteFor(api.RouteEditorContent, params)
	if err != nil {
		e.lastErr = err
		return loop.Resolved(e.api.Loop(), api.Response{}, err)
	}

	e.refresh.Cancel()
	token := loop.NewToken()
	e.refresh = token

	task := e.api.Fetch(ctx, api.RouteEditorContent, url)
	task.Then(func(resp api.Response, err error) {
		var records []model.Record
		if err == nil {
			records, err = resp.Records()
		}
		if err != nil {
			e.lastErr = err
			e.observe(RefreshError)
			e.logger.Warn("asset refresh failed", zap.Int("page", page), zap.Error(err))
			return
		}
		e.merge(records)
		if token.Cancelled() {
			e.observe(RefreshStale)
			e.logger.Debug("stale asset page not rendered", zap.Int("page", page))
			return
		}
		e.render(ctx, resp.Template)
		e.observe(RefreshApplied)
	})
	return task
}

// SyncFromDOM resolves the chosen asset through the lookup. Without a choice
// the value is left as is. A choice missing from the lookup is an error so
// the stack keeps the editor open.
func (e *Editor) SyncFromDOM() error {
	if e.doc == nil {
		return nil
	}
	id, ok := e.doc.Val(selectorImages)
	if !ok || id == "" {
		return nil
	}
	rec, ok := e.assetsByID[id]
	if !ok {
		e.logger.Warn("selected asset not loaded", zap.String("id", id))
		return fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	e.SetValue(rec)
	return nil
}

// Clear drops the current value and the picker selection.
func (e *Editor) Clear() {
	e.SetValue(nil)
	if e.doc != nil {
		e.doc.SetVal(selectorImages, "")
	}
}

func (e *Editor) merge(records []model.Record) {
	for _, rec := range records {
		if id := rec.ID(); id != "" {
			e.assetsByID[id] = rec
		}
	}
}

func (e *Editor) render(ctx context.Context, template string) {
	if e.doc == nil {
		return
	}
	e.doc.SetHTML(selectorAssets, template)
	if picker, ok := e.widgets.Enhancer(widgets.WidgetImagePicker); ok {
		if err := picker.Enhance(e.doc, selectorAssets+" "+selectorImages); err != nil {
			e.logger.Warn("image picker failed", zap.Error(err))
		}
	}
	e.doc.On(selectorPageLinks, "click", func(ev *dom.Event) {
		ev.PreventDefault()
		page, err := strconv.Atoi(ev.Target["data-page"])
		if err != nil {
			return
		}
		e.RefreshAssets(ctx, page)
	})
}

func (e *Editor) observe(outcome string) {
	if e.observer != nil {
		e.observer.ObserveRefresh(outcome)
	}
}
