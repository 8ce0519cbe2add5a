package tui

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/editor"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/page"
)

// Asset actions offered for asset fields, in prompt order.
const (
	AssetKeep = iota
	AssetChoose
	AssetUpload
	AssetClear
)

var assetActions = []string{"keep current", "choose existing", "upload file", "clear"}

const (
	panelImages   = `#editor-stack select[name="images"]`
	panelUpload   = "#upload-asset"
	panelClear    = "#asset-clear-button"
	noneOption    = "(none)"
	idleTimeout   = 30 * time.Second
	assetPageSize = 15
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileReader overrides how upload paths are read.
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(s *Session) {
		if read != nil {
			s.readFile = read
		}
	}
}

// Session walks the fields of an attached page with prompts. Answers are
// written into the document and fire the same events a user would, so the
// editors see ordinary edits.
type Session struct {
	driver     PromptDriver
	controller *page.Controller
	doc        dom.Document
	stack      *editor.Stack
	loop       *loop.Loop
	logger     *zap.Logger
	readFile   func(string) ([]byte, error)
}

// NewSession binds a driver to an attached page.
func NewSession(driver PromptDriver, controller *page.Controller, doc dom.Document, stack *editor.Stack, l *loop.Loop, options ...Option) *Session {
	s := &Session{
		driver:     driver,
		controller: controller,
		doc:        doc,
		stack:      stack,
		loop:       l,
		logger:     zap.NewNop(),
		readFile:   os.ReadFile,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run prompts for every field in order and returns the collected record.
func (s *Session) Run(ctx context.Context) (model.Record, error) {
	for _, ed := range s.controller.Editors() {
		if err := s.editField(ctx, ed); err != nil {
			return nil, fmt.Errorf("tui: field %q: %w", ed.Field().Slug, err)
		}
		if err := s.drain(ctx); err != nil {
			return nil, err
		}
	}
	return s.controller.Collect(), nil
}

func (s *Session) editField(ctx context.Context, ed editor.FieldEditor) error {
	field := ed.Field()
	selector := ed.Selector()
	current, _ := s.doc.Val(selector)

	switch field.Type {
	case model.FieldTypeText:
		value, err := s.driver.TextArea(ctx, TextAreaConfig{Message: field.Label(), Default: current})
		if err != nil {
			return err
		}
		s.edit(selector, current, value)

	case model.FieldTypeBoolean:
		checked, _ := s.doc.Prop(selector, "checked")
		value, err := s.driver.Confirm(ctx, ConfirmConfig{Message: field.Label(), Default: checked})
		if err != nil {
			return err
		}
		if value != checked {
			dom.Toggle(s.doc, selector, value)
		}

	case model.FieldTypeDate:
		value, err := s.driver.Input(ctx, InputConfig{
			Message:   field.Label(),
			Default:   current,
			Help:      "YYYY-MM-DD",
			Validator: validateDate,
		})
		if err != nil {
			return err
		}
		s.edit(selector, current, value)

	case model.FieldTypePassword:
		value, err := s.driver.Password(ctx, InputConfig{Message: field.Label(), Help: "leave empty to keep"})
		if err != nil {
			return err
		}
		if value != "" {
			dom.Edit(s.doc, selector, value)
		}

	case model.FieldTypeEnum:
		return s.editEnum(ctx, ed, current)

	case model.FieldTypeAsset:
		return s.editAsset(ctx, ed)

	default:
		value, err := s.driver.Input(ctx, InputConfig{Message: field.Label(), Default: current})
		if err != nil {
			return err
		}
		s.edit(selector, current, value)
	}
	return nil
}

func (s *Session) edit(selector, current, value string) {
	if value != current {
		dom.Edit(s.doc, selector, value)
	}
}

func (s *Session) editEnum(ctx context.Context, ed editor.FieldEditor, current string) error {
	field := ed.Field()
	selector := ed.Selector()

	var id string
	if values := optionValues(s.doc.Elements(selector + " option")); len(values) > 0 {
		options := append([]string{noneOption}, values...)
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      field.Label(),
			Options:      options,
			DefaultIndex: indexOf(options, current),
		})
		if err != nil {
			return err
		}
		if idx > 0 {
			id = options[idx]
		}
	} else {
		value, err := s.driver.Input(ctx, InputConfig{Message: field.Label() + " id", Default: current})
		if err != nil {
			return err
		}
		id = strings.TrimSpace(value)
		if id != "" && !s.doc.Exists(fmt.Sprintf(`%s option[value=%q]`, selector, id)) {
			s.doc.Append(selector, fmt.Sprintf(`<option value="%s">%s</option>`, html.EscapeString(id), html.EscapeString(id)))
		}
	}
	if id == current {
		return nil
	}
	dom.Edit(s.doc, selector, id)

	enum, ok := ed.(*editor.Enum)
	if !ok {
		return nil
	}
	if _, err := enum.Resolve(ctx); err != nil {
		return err
	}
	return s.drain(ctx)
}

func (s *Session) editAsset(ctx context.Context, ed editor.FieldEditor) error {
	field := ed.Field()
	action, err := s.driver.Select(ctx, SelectConfig{Message: field.Label(), Options: assetActions})
	if err != nil {
		return err
	}
	if action <= AssetKeep || action >= len(assetActions) {
		return nil
	}

	if err := s.openAssetPanel(ctx, ed); err != nil {
		return err
	}

	switch action {
	case AssetChoose:
		chosen, err := s.chooseAsset(ctx, field)
		if err != nil || !chosen {
			s.stack.Cancel()
			return err
		}
	case AssetUpload:
		uploaded, err := s.uploadAsset(ctx, field)
		if err != nil || !uploaded {
			s.stack.Cancel()
			return err
		}
	case AssetClear:
		dom.Click(s.doc, panelClear)
	}

	if err := s.stack.Complete(); err != nil {
		s.logger.Warn("asset selection rejected", zap.String("field", field.Slug), zap.Error(err))
		s.stack.Cancel()
		return s.driver.Info(ctx, "selection rejected: "+err.Error())
	}
	return s.drain(ctx)
}

// triggered is implemented by editors opened from a link, such as asset
// fields.
type triggered interface {
	TriggerSelector() string
}

func (s *Session) openAssetPanel(ctx context.Context, ed editor.FieldEditor) error {
	trigger, ok := ed.(triggered)
	if !ok {
		return ErrPanelNotOpened
	}
	depth := s.stack.Len()
	dom.Click(s.doc, trigger.TriggerSelector())
	if err := s.drain(ctx); err != nil {
		return err
	}
	if s.stack.Len() <= depth {
		return ErrPanelNotOpened
	}
	return nil
}

func (s *Session) chooseAsset(ctx context.Context, field model.Field) (bool, error) {
	elements := s.doc.Elements(panelImages + " option")
	var ids, labels []string
	for _, el := range elements {
		id := el.Attrs["value"]
		if id == "" {
			continue
		}
		ids = append(ids, id)
		labels = append(labels, fmt.Sprintf("%s (#%s)", strings.TrimSpace(el.Text), id))
	}
	if len(ids) == 0 {
		return false, s.driver.Info(ctx, "no assets available")
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:  "Asset for " + field.Label(),
		Options:  labels,
		PageSize: assetPageSize,
	})
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(ids) {
		return false, nil
	}
	_, ok := dom.Click(s.doc, fmt.Sprintf(`ul.image_picker_selector li[data-value=%q]`, ids[idx]))
	if !ok {
		dom.Edit(s.doc, panelImages, ids[idx])
	}
	return true, nil
}

func (s *Session) uploadAsset(ctx context.Context, field model.Field) (bool, error) {
	path, err := s.driver.Input(ctx, InputConfig{Message: "File to upload for " + field.Label()})
	if err != nil {
		return false, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return false, nil
	}
	data, err := s.readFile(path)
	if err != nil {
		return false, s.driver.Info(ctx, "cannot read "+path+": "+err.Error())
	}
	s.doc.SetFiles(panelUpload, dom.File{Name: filepath.Base(path), Data: data})
	s.doc.Trigger(panelUpload, "change")
	return true, s.drain(ctx)
}

func (s *Session) drain(ctx context.Context) error {
	if s.loop == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, idleTimeout)
	defer cancel()
	if err := s.loop.RunUntilIdle(ctx); err != nil {
		return fmt.Errorf("tui: wait for pending requests: %w", err)
	}
	return nil
}

func optionValues(elements []dom.Element) []string {
	var out []string
	for _, el := range elements {
		if value := el.Attrs["value"]; value != "" {
			out = append(out, value)
		}
	}
	return out
}

func validateDate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return nil
}
