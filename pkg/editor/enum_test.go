package editor

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/api/apitest"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
)

const authorSelect = `<select name="author">
  <option value="">none</option>
  <option value="1">Ada</option>
  <option value="2">Grace</option>
</select>`

var authorField = model.Field{Slug: "author", Type: model.FieldTypeEnum, Target: "person"}

func newAuthorEditor(t *testing.T, doc dom.Document, ctx api.Context) *Enum {
	t.Helper()
	ed := NewEnum(Options{
		Field:    authorField,
		Document: doc,
		API:      ctx,
		Value:    map[string]any{"id": float64(1), "name": "Ada"},
		IDValue:  "1",
	})
	if err := ed.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return ed
}

func TestEnum_Invalidation(t *testing.T) {
	ada := model.Record{"id": float64(1), "name": "Ada"}
	cases := []struct {
		name   string
		choose string
		want   Ref
		state  RefState
	}{
		{name: "same id keeps payload", choose: "1", want: Ref{ID: "1", Value: ada}, state: IDWithValue},
		{name: "new id clears payload", choose: "2", want: Ref{ID: "2"}, state: IDOnly},
		{name: "clearing unsets", choose: "", want: Ref{}, state: Unset},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			doc := dom.MustParse(authorSelect)
			ed := newAuthorEditor(t, doc, nil)

			dom.Edit(doc, ed.Selector(), tc.choose)
			ed.SyncFromDOM()

			if diff := cmp.Diff(tc.want, ed.Ref()); diff != "" {
				t.Fatalf("ref mismatch (-want +got):\n%s", diff)
			}
			if ed.State() != tc.state {
				t.Fatalf("state: want %s, got %s", tc.state, ed.State())
			}
		})
	}
}

func TestRef_SelectFromPayloadOnly(t *testing.T) {
	ref := Ref{Value: model.Record{"id": "5"}}
	if got := ref.Select("5"); got.Value == nil {
		t.Fatalf("payload for the same id must survive")
	}
	if got := ref.Select("6"); got.Value != nil {
		t.Fatalf("payload for another id must be cleared, got %v", got.Value)
	}
}

func TestEnum_SyncToDOMFallsBackToPayloadID(t *testing.T) {
	doc := dom.MustParse(authorSelect)
	ed := NewEnum(Options{Field: authorField, Document: doc, Value: model.Record{"id": float64(2)}})

	ed.SyncToDOM()
	if got, _ := doc.Val(ed.Selector()); got != "2" {
		t.Fatalf("expected payload id to be selected, got %q", got)
	}
}

func TestEnum_SyncsToBothKeys(t *testing.T) {
	ed := NewEnum(Options{Field: authorField})
	if diff := cmp.Diff([]string{"author", "author-id"}, ed.SyncsTo()); diff != "" {
		t.Fatalf("syncsTo mismatch (-want +got):\n%s", diff)
	}

	ed.SyncValueFrom(model.Record{
		"author":    map[string]any{"id": float64(2), "name": "Grace"},
		"author-id": float64(2),
	})
	want := Ref{ID: "2", Value: model.Record{"id": float64(2), "name": "Grace"}}
	if diff := cmp.Diff(want, ed.Ref()); diff != "" {
		t.Fatalf("ref mismatch (-want +got):\n%s", diff)
	}

	out := model.Record{}
	ed.SyncValueTo(out)
	wantRecord := model.Record{"author": want.Value, "author-id": "2"}
	if diff := cmp.Diff(wantRecord, out); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestEnum_Resolve(t *testing.T) {
	l := loop.New()
	fake := apitest.New().Handle(api.RouteEditorContent, func(_ api.Request, q url.Values) (api.Response, error) {
		return apitest.JSON("", map[string]any{"id": q.Get("id"), "name": "Grace", "model": q.Get("model")}), nil
	})
	client := api.NewClient(l, api.WithTransport(fake))
	doc := dom.MustParse(authorSelect)
	ed := newAuthorEditor(t, doc, client)

	synced := 0
	ed.On(EventSync, func(Event) { synced++ })

	dom.Edit(doc, ed.Selector(), "2")
	ed.SyncFromDOM()
	if ed.State() != IDOnly {
		t.Fatalf("expected id-only before resolve, got %s", ed.State())
	}

	if _, err := ed.Resolve(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.RunUntilIdle(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := Ref{ID: "2", Value: model.Record{"id": "2", "name": "Grace", "model": "person"}}
	if diff := cmp.Diff(want, ed.Ref()); diff != "" {
		t.Fatalf("ref mismatch (-want +got):\n%s", diff)
	}
	if synced != 1 {
		t.Fatalf("expected one sync notification, got %d", synced)
	}
}

func TestEnum_ResolveDropsStalePayload(t *testing.T) {
	l := loop.New()
	fake := apitest.New().Handle(api.RouteEditorContent, func(_ api.Request, q url.Values) (api.Response, error) {
		return apitest.JSON("", map[string]any{"id": q.Get("id")}), nil
	})
	client := api.NewClient(l, api.WithTransport(fake))
	doc := dom.MustParse(authorSelect)
	ed := newAuthorEditor(t, doc, client)

	dom.Edit(doc, ed.Selector(), "2")
	ed.SyncFromDOM()
	if _, err := ed.Resolve(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	dom.Edit(doc, ed.Selector(), "")
	ed.SyncFromDOM()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.RunUntilIdle(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ed.State() != Unset {
		t.Fatalf("late payload must not resurrect a cleared reference, got %s", ed.State())
	}
}

func TestEnum_ResolveUnsetIsNoop(t *testing.T) {
	ed := NewEnum(Options{Field: authorField})
	task, err := ed.Resolve(context.Background())
	if err != nil || task != nil {
		t.Fatalf("expected nothing to resolve, got task=%v err=%v", task, err)
	}
}
