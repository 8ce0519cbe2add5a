package asset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/api/apitest"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/editor"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
)

const panelMarkup = `<div class="asset-editor">
  <img id="current-image" src="">
  <input type="file" id="upload-asset" name="file">
  <button id="upload-button">Upload</button>
  <input id="asset-search" name="search" value="">
  <button id="asset-search-button">Search</button>
  <button id="asset-clear-button">Clear</button>
  <div id="assets"></div>
</div>`

const pageMarkup = `<body>
  <div id="article-image"><img id="image" src=""><a href="#">choose</a></div>
  <div id="editor-stack"></div>
</body>`

var fixturePaths = map[int]string{7: "a.png", 8: "b.png", 9: "c.png", 10: "d.png"}

var fixturePages = map[int][]int{0: {7, 8}, 1: {9, 10}}

func fixtureAsset(id int) map[string]any {
	return map[string]any{"id": id, "path": fixturePaths[id]}
}

func existingAssets(page int) api.Response {
	var b strings.Builder
	b.WriteString(`<select name="images">`)
	records := make([]map[string]any, 0, len(fixturePages[page]))
	for _, id := range fixturePages[page] {
		fmt.Fprintf(&b, `<option value="%d" data-img-src="/%s">%d</option>`, id, fixturePaths[id], id)
		records = append(records, fixtureAsset(id))
	}
	b.WriteString(`</select>`)
	fmt.Fprintf(&b, `<a href="#" class="page" data-page="%d">next</a>`, page+1)
	return apitest.JSON(b.String(), records)
}

type harness struct {
	loop   *loop.Loop
	fake   *apitest.Transport
	client *api.Client
}

func serveContent(_ api.Request, q url.Values) (api.Response, error) {
	switch q.Get("template") {
	case TemplateAsset:
		id, err := strconv.Atoi(q.Get("id"))
		if err != nil {
			return apitest.JSON(panelMarkup, nil), nil
		}
		return apitest.JSON(panelMarkup, fixtureAsset(id)), nil
	case TemplateExistingAssets:
		page, _ := strconv.Atoi(q.Get("page"))
		return existingAssets(page), nil
	}
	return api.Response{}, fmt.Errorf("unexpected template %q", q.Get("template"))
}

func newHarness() *harness {
	h := &harness{loop: loop.New(), fake: apitest.New()}
	h.fake.Handle(api.RouteEditorContent, serveContent)
	h.client = api.NewClient(h.loop, api.WithTransport(h.fake))
	return h
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.loop.RunUntilIdle(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func newField(t *testing.T, h *harness, doc dom.Document, stack *editor.Stack) *FieldEditor {
	t.Helper()
	f := NewFieldEditor(editor.Options{
		Field:    model.Field{Slug: "image", Type: model.FieldTypeAsset, Model: "article"},
		Model:    model.Model{Slug: "article"},
		Document: doc,
		API:      h.client,
		Stack:    stack,
	})
	if err := f.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return f
}

func TestFieldEditor_ChooseAndClear(t *testing.T) {
	h := newHarness()
	doc := dom.MustParse(pageMarkup)
	stack := editor.NewStack(doc)
	f := newField(t, h, doc, stack)

	var synced []editor.Ref
	f.On(editor.EventSync, func(ev editor.Event) { synced = append(synced, ev.Value.(editor.Ref)) })

	if prevented, ok := dom.Click(doc, "#article-image a"); !ok || !prevented {
		t.Fatalf("choose link must be handled without navigation (ok=%v prevented=%v)", ok, prevented)
	}
	h.drain(t)
	if stack.Len() != 1 {
		t.Fatalf("expected the asset editor on the stack, len=%d", stack.Len())
	}
	if !doc.Exists(`#editor-stack ul.image_picker_selector li[data-value="7"]`) {
		t.Fatalf("expected enhanced asset list, got %s", doc.Render())
	}

	dom.Click(doc, `ul.image_picker_selector li[data-value="7"]`)
	if err := stack.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	h.drain(t)

	want := editor.Ref{ID: "7", Value: model.Record{"id": float64(7), "path": "a.png"}}
	if diff := cmp.Diff(want, f.Ref()); diff != "" {
		t.Fatalf("ref mismatch (-want +got):\n%s", diff)
	}
	if stack.Len() != 0 || stack.Busy() {
		t.Fatalf("stack should be idle and empty")
	}
	f.SyncToDOM()
	if src, _ := doc.Attr("img#image", "src"); src != "/a.png" {
		t.Fatalf("preview src: got %q", src)
	}

	dom.Click(doc, "#article-image a")
	h.drain(t)
	dom.Click(doc, "#asset-clear-button")
	if err := stack.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	h.drain(t)

	if diff := cmp.Diff(editor.Ref{}, f.Ref()); diff != "" {
		t.Fatalf("cleared ref mismatch (-want +got):\n%s", diff)
	}
	if len(synced) != 2 {
		t.Fatalf("expected a sync notification per completion, got %d", len(synced))
	}

	out := model.Record{}
	f.SyncValueTo(out)
	if diff := cmp.Diff(model.Record{"image": nil, "image-id": nil}, out); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldEditor_IgnoresTriggerWhileBusy(t *testing.T) {
	h := newHarness()
	doc := dom.MustParse(pageMarkup)
	stack := editor.NewStack(doc)
	f := newField(t, h, doc, stack)
	f.SetValue(model.Record{"id": float64(8), "path": "b.png"})

	dom.Click(doc, "#article-image a")
	h.drain(t)
	dom.Click(doc, `ul.image_picker_selector li[data-value="8"]`)

	pending := false
	f.On(editor.EventSync, func(editor.Event) { pending = stack.Busy() })
	if err := stack.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	before := len(h.fake.Requests())
	dom.Click(doc, "#article-image a")
	h.drain(t)

	if got := len(h.fake.Requests()); got != before {
		t.Fatalf("trigger while busy must not issue requests, %d new", got-before)
	}
	if !pending {
		t.Fatalf("sync notification should run before the continuation pops the stack")
	}
}

func TestFieldEditor_IDOnlyReferenceLoadsByID(t *testing.T) {
	h := newHarness()
	doc := dom.MustParse(pageMarkup)
	stack := editor.NewStack(doc)
	f := newField(t, h, doc, stack)
	f.SyncValueFrom(model.Record{"image-id": "8"})
	if f.Ref().State() != editor.IDOnly {
		t.Fatalf("expected an id-only reference, got %s", f.Ref().State())
	}

	dom.Click(doc, "#article-image a")
	h.drain(t)
	load := h.fake.Requests()[0]
	if !strings.Contains(load.URL, "id=8") {
		t.Fatalf("panel should be loaded by the current id, got %s", load.URL)
	}

	if err := stack.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	h.drain(t)

	want := editor.Ref{ID: "8", Value: model.Record{"id": float64(8), "path": "b.png"}}
	if diff := cmp.Diff(want, f.Ref()); diff != "" {
		t.Fatalf("confirming without a choice must keep the reference (-want +got):\n%s", diff)
	}
}

func TestFieldEditor_RepeatedTriggerOpensOnce(t *testing.T) {
	h := newHarness()
	doc := dom.MustParse(pageMarkup)
	stack := editor.NewStack(doc)
	newField(t, h, doc, stack)

	dom.Click(doc, "#article-image a")
	dom.Click(doc, "#article-image a")
	h.drain(t)

	if stack.Len() != 1 {
		t.Fatalf("expected one asset editor, len=%d", stack.Len())
	}
	loads := 0
	for _, req := range h.fake.Requests() {
		if strings.Contains(req.URL, "template="+url.QueryEscape(TemplateAsset)) {
			loads++
		}
	}
	if loads != 1 {
		t.Fatalf("expected one panel load, got %d", loads)
	}

	if err := stack.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	dom.Click(doc, "#article-image a")
	h.drain(t)
	if stack.Len() != 1 {
		t.Fatalf("trigger should open the editor again after a cancel, len=%d", stack.Len())
	}
}

func newPanelEditor(h *harness, observer RefreshObserver) (*Editor, dom.Document) {
	doc := dom.MustParse(panelMarkup)
	ed := NewEditor(EditorOptions{
		Field:    model.Field{Slug: "image"},
		API:      h.client,
		Observer: observer,
	})
	return ed, doc
}

type refreshCounter map[string]int

func (r refreshCounter) ObserveRefresh(outcome string) { r[outcome]++ }

func TestEditor_RefreshMergesPages(t *testing.T) {
	h := newHarness()
	counts := refreshCounter{}
	ed, doc := newPanelEditor(h, counts)
	if err := ed.Attach(doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.drain(t)

	dom.Click(doc, "#assets a")
	h.drain(t)

	if diff := cmp.Diff([]string{"10", "7", "8", "9"}, ed.CachedIDs()); diff != "" {
		t.Fatalf("cache should hold both pages (-want +got):\n%s", diff)
	}
	if rec, ok := ed.Cached("7"); !ok || rec.Path() != "a.png" {
		t.Fatalf("first page entry lost after paging: %v", rec)
	}
	if doc.Exists(`#assets option[value="7"]`) || !doc.Exists(`#assets option[value="9"]`) {
		t.Fatalf("panel should show only the latest page, got %s", doc.Render())
	}
	if counts[RefreshApplied] != 2 {
		t.Fatalf("expected two applied refreshes, got %v", counts)
	}
}

func TestEditor_StaleRefreshMergedButNotRendered(t *testing.T) {
	h := newHarness()
	counts := refreshCounter{}
	ed, doc := newPanelEditor(h, counts)
	ed.doc = doc

	ed.RefreshAssets(context.Background(), 0)
	ed.RefreshAssets(context.Background(), 1)
	h.drain(t)

	if diff := cmp.Diff([]string{"10", "7", "8", "9"}, ed.CachedIDs()); diff != "" {
		t.Fatalf("cache should hold both pages (-want +got):\n%s", diff)
	}
	if !doc.Exists(`#assets option[value="10"]`) || doc.Exists(`#assets option[value="8"]`) {
		t.Fatalf("panel should reflect the latest request, got %s", doc.Render())
	}
	if counts[RefreshStale] != 1 || counts[RefreshApplied] != 1 {
		t.Fatalf("unexpected refresh outcomes %v", counts)
	}
}

func TestEditor_UnknownSelectionKeepsEditorOpen(t *testing.T) {
	h := newHarness()
	doc := dom.MustParse(`<div id="editor-stack"></div>`)
	stack := editor.NewStack(doc)
	submitted := false
	ed := NewEditor(EditorOptions{
		Field:  model.Field{Slug: "image"},
		API:    h.client,
		Submit: func(any, func()) { submitted = true },
	})
	ed.SetTemplate(panelMarkup)
	if err := stack.Push(ed); err != nil {
		t.Fatalf("push: %v", err)
	}
	h.drain(t)

	doc.SetHTML("#assets", `<select name="images"><option value="99" selected>stale</option></select>`)
	if err := stack.Complete(); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if submitted || stack.Len() != 1 {
		t.Fatalf("editor must stay open, submitted=%v len=%d", submitted, stack.Len())
	}
}

func TestEditor_Upload(t *testing.T) {
	h := newHarness()
	h.fake.Handle(api.RouteUploadAsset, func(req api.Request, _ url.Values) (api.Response, error) {
		if req.File == nil || req.File.Name != "new.png" {
			return api.Response{}, fmt.Errorf("missing file")
		}
		return apitest.JSON("", fixtureAsset(9)), nil
	})
	ed, doc := newPanelEditor(h, nil)
	if err := ed.Attach(doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.drain(t)

	doc.SetFiles("#upload-asset", dom.File{Name: "new.png", ContentType: "image/png", Data: []byte("png")})
	doc.Trigger("#upload-asset", "change")
	h.drain(t)

	if diff := cmp.Diff(model.Record{"id": float64(9), "path": "c.png"}, ed.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if src, _ := doc.Attr("#current-image", "src"); src != "/c.png" {
		t.Fatalf("preview src: got %q", src)
	}

	var reloaded, refreshed bool
	for _, req := range h.fake.Requests()[1:] {
		switch {
		case strings.Contains(req.URL, "template="+url.QueryEscape(TemplateAsset)) && strings.Contains(req.URL, "id=9"):
			reloaded = true
		case strings.Contains(req.URL, "template="+url.QueryEscape(TemplateExistingAssets)):
			refreshed = true
		}
	}
	if !reloaded || !refreshed {
		t.Fatalf("upload should reload the panel and refresh assets (reload=%v refresh=%v)", reloaded, refreshed)
	}
}

func TestEditor_UploadSendsSelectionOnce(t *testing.T) {
	h := newHarness()
	uploads := 0
	h.fake.Handle(api.RouteUploadAsset, func(api.Request, url.Values) (api.Response, error) {
		uploads++
		return apitest.JSON("", fixtureAsset(9)), nil
	})
	ed, doc := newPanelEditor(h, nil)
	if err := ed.Attach(doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.drain(t)

	doc.SetFiles("#upload-asset", dom.File{Name: "new.png", ContentType: "image/png", Data: []byte("png")})
	doc.Trigger("#upload-asset", "change")
	dom.Click(doc, "#upload-button")
	h.drain(t)

	if uploads != 1 {
		t.Fatalf("expected one upload for one selected file, got %d", uploads)
	}
	if files := doc.Files("#upload-asset"); len(files) != 0 {
		t.Fatalf("upload control should be emptied, got %d files", len(files))
	}
}

func TestEditor_SearchSendsTerm(t *testing.T) {
	h := newHarness()
	h.fake.Handle(api.RouteEditorContent, func(req api.Request, q url.Values) (api.Response, error) {
		if q.Get("template") == TemplateExistingAssets && q.Get("search") == "c.png" {
			return existingAssets(1), nil
		}
		return serveContent(req, q)
	})
	counts := refreshCounter{}
	ed, doc := newPanelEditor(h, counts)
	if err := ed.Attach(doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.drain(t)

	doc.SetVal("#asset-search", "c.png")
	dom.Click(doc, "#asset-search-button")
	h.drain(t)

	requests := h.fake.Requests()
	last := requests[len(requests)-1]
	if !strings.Contains(last.URL, "search=c.png") {
		t.Fatalf("search term should be sent, got %s", last.URL)
	}
	if !doc.Exists(`#assets option[value="9"]`) || doc.Exists(`#assets option[value="7"]`) {
		t.Fatalf("panel should show the search results, got %s", doc.Render())
	}
	if counts[RefreshApplied] != 2 {
		t.Fatalf("expected two applied refreshes, got %v", counts)
	}
}

func TestEditor_TransportErrorRecorded(t *testing.T) {
	h := newHarness()
	h.fake.Handle(api.RouteEditorContent, func(api.Request, url.Values) (api.Response, error) {
		return api.Response{}, errors.New("boom")
	})
	counts := refreshCounter{}
	ed, doc := newPanelEditor(h, counts)
	if err := ed.Attach(doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.drain(t)

	if ed.LastError() == nil {
		t.Fatalf("expected the transport error to be recorded")
	}
	if counts[RefreshError] != 1 {
		t.Fatalf("expected one failed refresh, got %v", counts)
	}
	if html, _ := doc.HTML("#assets"); html != "" {
		t.Fatalf("panel should stay untouched, got %q", html)
	}
}
