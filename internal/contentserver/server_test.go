package contentserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/asset"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func newTestServer(t *testing.T, options ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(NewStore(), options...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func fetch(t *testing.T, ts *httptest.Server, params api.Params) (api.Response, error) {
	t.Helper()
	url, err := Routes(ts.URL).RouteFor(api.RouteEditorContent, params)
	require.NoError(t, err)
	transport := api.NewHTTPTransport(ts.Client(), 0)
	return transport.Do(context.Background(), api.Request{Route: api.RouteEditorContent, URL: url})
}

func upload(t *testing.T, ts *httptest.Server, name string, data []byte) model.Record {
	t.Helper()
	url, err := Routes(ts.URL).RouteFor(api.RouteUploadAsset, nil)
	require.NoError(t, err)
	transport := api.NewHTTPTransport(ts.Client(), 0)
	resp, err := transport.Do(context.Background(), api.Request{
		Route: api.RouteUploadAsset,
		URL:   url,
		File:  &dom.File{Name: name, Data: data},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Meta.Status)
	rec, err := resp.Record()
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestServer_UploadStoresAsset(t *testing.T) {
	_, ts := newTestServer(t)

	rec := upload(t, ts, "Cover.PNG", pngHeader)
	assert.Equal(t, "1", rec.ID())
	assert.Equal(t, "Cover.PNG", rec.String("name"))
	assert.Equal(t, "image/png", rec.String("content_type"))
	assert.True(t, strings.HasPrefix(rec.Path(), AssetPrefix+"/"))
	assert.True(t, strings.HasSuffix(rec.Path(), ".png"))

	resp, err := ts.Client().Get(ts.URL + "/" + rec.Path())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestServer_RejectsEmptyUpload(t *testing.T) {
	_, ts := newTestServer(t)
	url, err := Routes(ts.URL).RouteFor(api.RouteUploadAsset, nil)
	require.NoError(t, err)

	_, err = api.NewHTTPTransport(ts.Client(), 0).Do(context.Background(), api.Request{
		Route: api.RouteUploadAsset,
		URL:   url,
		File:  &dom.File{Name: "empty.png"},
	})
	require.ErrorIs(t, err, api.ErrUnexpectedStatus)
}

func TestServer_AssetPanel(t *testing.T) {
	_, ts := newTestServer(t)
	rec := upload(t, ts, "a.png", pngHeader)

	resp, err := fetch(t, ts, api.Params{"model": asset.ModelSlug, "template": asset.TemplateAsset, "id": rec.ID()})
	require.NoError(t, err)
	state, err := resp.Record()
	require.NoError(t, err)
	assert.Equal(t, rec.Path(), state.Path())
	assert.Contains(t, resp.Template, `id="current-image" src="/`+rec.Path()+`"`)
	assert.Contains(t, resp.Template, `id="upload-asset"`)

	blank, err := fetch(t, ts, api.Params{"model": asset.ModelSlug, "template": asset.TemplateAsset})
	require.NoError(t, err)
	assert.False(t, blank.HasState())
	assert.Contains(t, blank.Template, `id="current-image" src=""`)

	_, err = fetch(t, ts, api.Params{"model": asset.ModelSlug, "template": asset.TemplateAsset, "id": "99"})
	require.ErrorIs(t, err, api.ErrUnexpectedStatus)
}

func TestServer_ExistingAssetsPages(t *testing.T) {
	_, ts := newTestServer(t)
	for _, name := range []string{"one.png", "two.png", "three.png"} {
		upload(t, ts, name, pngHeader)
	}

	first, err := fetch(t, ts, api.Params{
		"model": asset.ModelSlug, "template": asset.TemplateExistingAssets, "page": "0", "size": "2",
	})
	require.NoError(t, err)
	records, err := first.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "3", records[0].ID())
	assert.Equal(t, "2", records[1].ID())
	assert.Contains(t, first.Template, `<option value="3" data-img-src="/`+records[0].Path()+`">three.png</option>`)
	assert.Contains(t, first.Template, `data-page="1"`)
	assert.NotContains(t, first.Template, "previous")

	second, err := fetch(t, ts, api.Params{
		"model": asset.ModelSlug, "template": asset.TemplateExistingAssets, "page": "1", "size": "2",
	})
	require.NoError(t, err)
	records, err = second.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].ID())
	assert.Contains(t, second.Template, `data-page="0"`)
	assert.NotContains(t, second.Template, ">next<")

	search, err := fetch(t, ts, api.Params{
		"model": asset.ModelSlug, "template": asset.TemplateExistingAssets, "search": "TW",
	})
	require.NoError(t, err)
	records, err = search.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "two.png", records[0].String("name"))
}

func TestServer_ModelRecords(t *testing.T) {
	srv, ts := newTestServer(t)
	require.NoError(t, srv.Store().PutRecord("author", model.Record{"id": "5", "name": "Ada"}))

	resp, err := fetch(t, ts, api.Params{"model": "author", "id": "5"})
	require.NoError(t, err)
	rec, err := resp.Record()
	require.NoError(t, err)
	assert.Equal(t, model.Record{"id": "5", "name": "Ada"}, rec)
	assert.Empty(t, resp.Template)

	_, err = fetch(t, ts, api.Params{"model": "author", "id": "6"})
	require.ErrorIs(t, err, api.ErrUnexpectedStatus)

	_, err = fetch(t, ts, api.Params{"model": "author", "id": "5", "template": "_missing.html"})
	require.ErrorIs(t, err, api.ErrUnexpectedStatus)

	_, err = fetch(t, ts, api.Params{"id": "5"})
	require.ErrorIs(t, err, api.ErrUnexpectedStatus)
}

func TestStore_PutRecordRequiresID(t *testing.T) {
	store := NewStore()
	require.ErrorIs(t, store.PutRecord("author", model.Record{"name": "x"}), ErrMissingID)
}

func TestStore_ListAssetsBounds(t *testing.T) {
	store := NewStore()
	store.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }
	_, err := store.AddAsset("a.png", "image/png", pngHeader)
	require.NoError(t, err)

	page, total := store.ListAssets(4, 10, "")
	assert.Empty(t, page)
	assert.Equal(t, 1, total)

	page, total = store.ListAssets(-1, 0, "A.")
	require.Len(t, page, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), page[0].CreatedAt)
}
