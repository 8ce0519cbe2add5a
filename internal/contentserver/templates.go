package contentserver

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-editors/pkg/model"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Templates returns the built-in panel templates.
func Templates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplateForm renders the page markup for a model: one control per field
// named by its slug, plus the editor stack container.
const TemplateForm = "_form.html"

// ErrTemplateNotFound is returned when a template name is not in the set.
var ErrTemplateNotFound = errors.New("contentserver: template not found")

// Engine renders panel templates through a pongo2 template set. Parsed
// templates are cached by name.
type Engine struct {
	mu sync.RWMutex

	files       fs.FS
	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
}

// NewEngine constructs an engine over files. A nil files uses the built-in
// templates.
func NewEngine(files fs.FS) *Engine {
	if files == nil {
		files = Templates()
	}
	return &Engine{
		files:       files,
		templateSet: pongo2.NewSet("editors", pongo2.NewFSLoader(files)),
		templates:   make(map[string]*pongo2.Template),
	}
}

// Has reports whether name exists in the template set.
func (e *Engine) Has(name string) bool {
	if !validName(name) {
		return false
	}
	_, err := fs.Stat(e.files, name)
	return err == nil
}

// Render executes the named template with data.
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}
	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("contentserver: convert data: %w", err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("contentserver: execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

// Form renders TemplateForm for m, optionally tagged with the record id.
func (e *Engine) Form(m model.Model, record model.Record) (string, error) {
	return e.Render(TemplateForm, map[string]any{"model": m, "record": record})
}

func (e *Engine) getTemplate(name string) (*pongo2.Template, error) {
	if !e.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	e.mu.RLock()
	if tmpl, ok := e.templates[name]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("contentserver: load template %q: %w", name, err)
	}
	e.templates[name] = tmpl
	return tmpl, nil
}

func validName(name string) bool {
	return name != "" && !strings.Contains(name, "..") && fs.ValidPath(name)
}

// convertToContext round-trips data through JSON so nested structs become
// maps keyed by their JSON names. Numbers stay json.Number so ids render
// without a fractional part.
func convertToContext(data any) (pongo2.Context, error) {
	out := pongo2.Context{}
	if data == nil {
		return out, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
