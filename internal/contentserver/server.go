package contentserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/asset"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/api"
)

// DefaultMaxUploadBytes bounds multipart uploads.
const DefaultMaxUploadBytes = 10 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngine overrides the template engine.
func WithEngine(engine *Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithModels registers model descriptors used to render forms.
func WithModels(models ...model.Model) Option {
	return func(s *Server) {
		for _, m := range models {
			if m.Slug != "" {
				s.models[m.Slug] = m
			}
		}
	}
}

// WithPageSize sets the asset page size used when a request omits one.
func WithPageSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithMaxUploadBytes bounds the size of uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// Server serves the editor-content and upload-asset endpoints plus the
// uploaded files.
type Server struct {
	store     *Store
	engine    *Engine
	models    map[string]model.Model
	logger    *zap.Logger
	pageSize  int
	maxUpload int64
	router    chi.Router
}

// New constructs a server over store.
func New(store *Store, options ...Option) *Server {
	if store == nil {
		store = NewStore()
	}
	s := &Server{
		store:     store,
		models:    make(map[string]model.Model),
		logger:    zap.NewNop(),
		pageSize:  50,
		maxUpload: DefaultMaxUploadBytes,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.engine == nil {
		s.engine = NewEngine(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/editor-content", s.handleEditorContent)
	r.Post("/upload-asset", s.handleUpload)
	r.Get("/"+AssetPrefix+"/{key}", s.handleAssetFile)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

type content struct {
	Template string `json:"template,omitempty"`
	State    any    `json:"state"`
}

func (s *Server) handleEditorContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slug := q.Get("model")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "MISSING_MODEL", "model is required")
		return
	}
	if slug == asset.ModelSlug {
		s.assetContent(w, q.Get("template"), q.Get("id"), q.Get("page"), q.Get("size"), q.Get("search"))
		return
	}

	var rec model.Record
	if id := q.Get("id"); id != "" {
		found, ok := s.store.Record(slug, id)
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", slug+" "+id+" not found")
			return
		}
		rec = found
	}
	descriptor, ok := s.models[slug]
	if !ok {
		descriptor = model.Model{Slug: slug}
	}
	var state any
	if rec != nil {
		state = rec
	}
	s.writeContent(w, q.Get("template"), state, map[string]any{"model": descriptor, "record": rec})
}

func (s *Server) assetContent(w http.ResponseWriter, template, id, page, size, search string) {
	if template == asset.TemplateExistingAssets {
		pageNum := parseInt(page, 0)
		pageSize := parseInt(size, s.pageSize)
		if pageSize == 0 {
			pageSize = s.pageSize
		}
		assets, total := s.store.ListAssets(pageNum, pageSize, search)
		data := map[string]any{
			"model":    asset.ModelSlug,
			"assets":   assets,
			"prev":     pageNum - 1,
			"next":     pageNum + 1,
			"has_prev": pageNum > 0,
			"has_next": (pageNum+1)*pageSize < total,
		}
		s.writeContent(w, template, assets, data)
		return
	}

	var state any
	if id != "" {
		n, err := strconv.Atoi(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid asset id: "+id)
			return
		}
		found, ok := s.store.Asset(n)
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "asset "+id+" not found")
			return
		}
		state = found
	}
	s.writeContent(w, template, state, map[string]any{"model": asset.ModelSlug, "asset": state})
}

func (s *Server) writeContent(w http.ResponseWriter, template string, state any, data map[string]any) {
	out := content{State: state}
	if template != "" {
		if !s.engine.Has(template) {
			writeError(w, http.StatusNotFound, "UNKNOWN_TEMPLATE", "unknown template: "+template)
			return
		}
		markup, err := s.engine.Render(template, data)
		if err != nil {
			s.logger.Error("render failed", zap.String("template", template), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
			return
		}
		out.Template = markup
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	created, err := s.store.AddAsset(header.Filename, contentType, data)
	if errors.Is(err, ErrEmptyUpload) {
		writeError(w, http.StatusBadRequest, "EMPTY_UPLOAD", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", err.Error())
		return
	}
	s.logger.Info("asset uploaded",
		zap.Int("id", created.ID),
		zap.String("name", created.Name),
		zap.Int("size", created.Size),
	)
	writeJSON(w, http.StatusCreated, content{State: created})
}

func (s *Server) handleAssetFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := s.store.File(chi.URLParam(r, "key"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func parseInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// Routes returns the route table matching this server mounted at baseURL.
func Routes(baseURL string) api.Routes {
	routes := api.DefaultRoutes()
	routes.BaseURL = baseURL
	return routes
}
