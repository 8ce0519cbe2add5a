package editor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-editors/pkg/model"
)

// Constructor builds a field editor.
type Constructor func(opts Options) (FieldEditor, error)

// Registry maps field type tags to constructors. It is built explicitly and
// handed to the page controller.
type Registry struct {
	mu           sync.RWMutex
	constructors map[model.FieldType]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[model.FieldType]Constructor)}
}

// DefaultRegistry returns a registry with the built-in scalar and enum
// editors. Reference editors that need a stack, such as assets, register
// themselves separately.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(model.FieldTypeString, func(opts Options) (FieldEditor, error) {
		return NewBase(opts), nil
	})
	r.MustRegister(model.FieldTypeText, func(opts Options) (FieldEditor, error) {
		return NewText(opts), nil
	})
	r.MustRegister(model.FieldTypeBoolean, func(opts Options) (FieldEditor, error) {
		return NewCheckBox(opts), nil
	})
	r.MustRegister(model.FieldTypeDate, func(opts Options) (FieldEditor, error) {
		return NewDate(opts), nil
	})
	r.MustRegister(model.FieldTypePassword, func(opts Options) (FieldEditor, error) {
		return NewPassword(opts), nil
	})
	r.MustRegister(model.FieldTypeEnum, func(opts Options) (FieldEditor, error) {
		return NewEnum(opts), nil
	})
	return r
}

// Register adds a constructor. Registering a type twice is an error.
func (r *Registry) Register(fieldType model.FieldType, ctor Constructor) error {
	if fieldType == "" {
		return fmt.Errorf("editor: field type required")
	}
	if ctor == nil {
		return fmt.Errorf("editor: constructor for %q is nil", fieldType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[fieldType]; exists {
		return fmt.Errorf("editor: constructor for %q already registered", fieldType)
	}
	r.constructors[fieldType] = ctor
	return nil
}

// MustRegister panics on registration errors.
func (r *Registry) MustRegister(fieldType model.FieldType, ctor Constructor) {
	if err := r.Register(fieldType, ctor); err != nil {
		panic(err)
	}
}

// Lookup returns the constructor for fieldType.
func (r *Registry) Lookup(fieldType model.FieldType) (Constructor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.constructors[fieldType]
	return ctor, ok
}

// New builds the editor for opts.Field, falling back to the string editor
// for unregistered types.
func (r *Registry) New(opts Options) (FieldEditor, error) {
	ctor, ok := r.Lookup(opts.Field.Type)
	if !ok {
		ctor, ok = r.Lookup(model.FieldTypeString)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, opts.Field.Type)
	}
	return ctor(opts)
}

// Types lists the registered type tags in sorted order.
func (r *Registry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FieldType, 0, len(r.constructors))
	for fieldType := range r.constructors {
		out = append(out, fieldType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
