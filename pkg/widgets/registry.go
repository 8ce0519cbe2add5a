package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/model"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetDatePicker  = "datepicker"
	WidgetImagePicker = "imagepicker"
)

// Matcher decides whether a widget should enhance the supplied field.
type Matcher func(field model.Field) bool

// Enhancer applies a widget to the controls matched by selector. Enhancers are
// pure DOM side effects; a selector that matches nothing is not an error.
type Enhancer interface {
	Enhance(doc dom.Document, selector string) error
}

// EnhancerFunc adapts a function into an Enhancer.
type EnhancerFunc func(doc dom.Document, selector string) error

// Enhance implements Enhancer.
func (fn EnhancerFunc) Enhance(doc dom.Document, selector string) error {
	return fn(doc, selector)
}

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on explicit hints or registered
// matchers, and holds the enhancer for each widget name. Higher priority wins;
// ties fall back to registration order.
type Registry struct {
	mu        sync.RWMutex
	rules     []rule
	enhancers map[string]Enhancer
}

// NewRegistry constructs a registry with the built-in date and image pickers
// configured from cfg.
func NewRegistry(cfg Config) *Registry {
	reg := &Registry{enhancers: make(map[string]Enhancer)}
	reg.registerBuiltins(cfg.withDefaults())
	return reg
}

// Register adds a matcher with the provided name and priority. The latest
// registration for a name wins during resolution.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// RegisterEnhancer installs the enhancer for a widget name.
func (r *Registry) RegisterEnhancer(name string, enhancer Enhancer) {
	if r == nil || enhancer == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enhancers[strings.TrimSpace(name)] = enhancer
}

// Enhancer returns the enhancer registered for name.
func (r *Registry) Enhancer(name string) (Enhancer, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	enhancer, ok := r.enhancers[name]
	return enhancer, ok
}

// Resolve returns the widget name for a field. Explicit metadata hints are
// honoured before matcher evaluation.
func (r *Registry) Resolve(field model.Field) (string, bool) {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Apply resolves the widget for field and enhances selector with it. It
// returns the applied widget name, or "" when no widget applies.
func (r *Registry) Apply(doc dom.Document, field model.Field, selector string) (string, error) {
	name, ok := r.Resolve(field)
	if !ok {
		return "", nil
	}
	enhancer, ok := r.Enhancer(name)
	if !ok {
		return "", fmt.Errorf("widgets: no enhancer registered for %q", name)
	}
	if err := enhancer.Enhance(doc, selector); err != nil {
		return "", fmt.Errorf("widgets: %s: %w", name, err)
	}
	return name, nil
}

func explicitWidget(field model.Field) string {
	if field.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(field.Metadata["widget"])
}

func (r *Registry) registerBuiltins(cfg Config) {
	r.Register(WidgetDatePicker, 90, func(field model.Field) bool {
		return field.Type == model.FieldTypeDate
	})
	r.Register(WidgetImagePicker, 80, func(field model.Field) bool {
		return field.Type == model.FieldTypeAsset
	})
	r.RegisterEnhancer(WidgetDatePicker, DatePicker{Format: cfg.DateFormat, ViewMode: cfg.DateViewMode})
	r.RegisterEnhancer(WidgetImagePicker, ImagePicker{ShowLabel: cfg.ShowImageLabel})
}
