package editor

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/dom"
)

// DefaultContainer is the element stack panels are mounted into.
const DefaultContainer = "#editor-stack"

// StackObserver is notified of stack transitions.
type StackObserver interface {
	StackPushed(depth int)
	StackPopped(depth int)
	Submitted(description string)
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithContainer mounts panels under selector instead of DefaultContainer.
func WithContainer(selector string) StackOption {
	return func(s *Stack) {
		if selector != "" {
			s.container = selector
		}
	}
}

// WithLogger sets the stack logger.
func WithLogger(logger *zap.Logger) StackOption {
	return func(s *Stack) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver reports transitions to obs.
func WithObserver(obs StackObserver) StackOption {
	return func(s *Stack) {
		s.observer = obs
	}
}

type frame struct {
	editor Editor
	panel  string
}

// Stack is the ordered set of open sub-editors. The last pushed editor is
// current; completions run strictly in reverse push order.
type Stack struct {
	doc       dom.Document
	container string
	frames    []frame
	pending   bool
	logger    *zap.Logger
	observer  StackObserver
}

// NewStack returns an empty stack rendering into doc.
func NewStack(doc dom.Document, options ...StackOption) *Stack {
	s := &Stack{
		doc:       doc,
		container: DefaultContainer,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Len returns the number of open editors.
func (s *Stack) Len() int { return len(s.frames) }

// Busy reports whether a submit continuation is outstanding. Triggers that
// would push or complete must do nothing while busy.
func (s *Stack) Busy() bool { return s.pending }

// Current returns the top editor.
func (s *Stack) Current() (Editor, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1].editor, true
}

// Push mounts editor in a fresh panel, hides the previous one and attaches
// the editor to its panel.
func (s *Stack) Push(editor Editor) error {
	if editor == nil {
		return fmt.Errorf("editor: push nil editor")
	}
	if s.pending {
		return ErrSubmitPending
	}
	depth := len(s.frames) + 1
	panel := fmt.Sprintf("%s > .editor-panel[data-depth=\"%d\"]", s.container, depth)

	var scoped dom.Document
	if s.doc != nil {
		if !s.doc.Exists(s.container) {
			s.doc.Append("body", fmt.Sprintf("<div id=%q></div>", trimHash(s.container)))
		}
		if prev, ok := s.top(); ok {
			s.doc.SetAttr(prev.panel, "hidden", "hidden")
		}
		markup := fmt.Sprintf("<div class=\"editor-panel\" data-depth=\"%d\">%s</div>", depth, editor.Template())
		if !s.doc.Append(s.container, markup) {
			return fmt.Errorf("editor: stack container %q not found", s.container)
		}
		var err error
		if scoped, err = s.doc.Scope(panel); err != nil {
			return err
		}
	}

	s.frames = append(s.frames, frame{editor: editor, panel: panel})
	if err := editor.Attach(scoped); err != nil {
		s.drop()
		return fmt.Errorf("editor: attach %s: %w", editor.Description(), err)
	}
	s.logger.Debug("editor pushed", zap.String("editor", editor.Description()), zap.Int("depth", depth))
	if s.observer != nil {
		s.observer.StackPushed(depth)
	}
	return nil
}

// Complete syncs the top editor from its panel and submits its value to the
// originating field. The editor stays open when syncing fails. The stack pops
// once the submit continuation runs; until then it is busy.
func (s *Stack) Complete() error {
	top, ok := s.top()
	if !ok {
		return ErrStackEmpty
	}
	if s.pending {
		return ErrSubmitPending
	}
	if err := top.editor.SyncFromDOM(); err != nil {
		s.logger.Warn("editor kept open", zap.String("editor", top.editor.Description()), zap.Error(err))
		return err
	}

	s.pending = true
	var once sync.Once
	next := func() {
		once.Do(func() {
			s.pending = false
			s.unmount()
		})
	}
	if s.observer != nil {
		s.observer.Submitted(top.editor.Description())
	}
	top.editor.Submit(top.editor.Value(), next)
	return nil
}

// Cancel closes the top editor without submitting.
func (s *Stack) Cancel() error {
	if len(s.frames) == 0 {
		return ErrStackEmpty
	}
	if s.pending {
		return ErrSubmitPending
	}
	s.unmount()
	return nil
}

func (s *Stack) top() (frame, bool) {
	if len(s.frames) == 0 {
		return frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *Stack) unmount() {
	depth := len(s.frames)
	top, ok := s.drop()
	if !ok {
		return
	}
	s.logger.Debug("editor popped", zap.String("editor", top.editor.Description()), zap.Int("depth", depth))
	if s.observer != nil {
		s.observer.StackPopped(depth)
	}
}

// drop removes the top frame and its panel and shows the previous panel. It
// reports nothing to the observer.
func (s *Stack) drop() (frame, bool) {
	top, ok := s.top()
	if !ok {
		return frame{}, false
	}
	s.frames = s.frames[:len(s.frames)-1]
	if s.doc != nil {
		s.doc.Remove(top.panel)
		if prev, ok := s.top(); ok {
			s.doc.RemoveAttr(prev.panel, "hidden")
		}
	}
	return top, true
}

func trimHash(selector string) string {
	if len(selector) > 0 && selector[0] == '#' {
		return selector[1:]
	}
	return selector
}
