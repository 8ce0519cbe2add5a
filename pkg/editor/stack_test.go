package editor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
)

type panelEditor struct {
	SubEditor
	attached  dom.Document
	syncErr   error
	attachErr error
}

func (p *panelEditor) Attach(doc dom.Document) error {
	if p.attachErr != nil {
		return p.attachErr
	}
	p.attached = doc
	return nil
}

func (p *panelEditor) SyncFromDOM() error {
	if p.syncErr != nil {
		return p.syncErr
	}
	if v, ok := p.attached.Val(`input[name="choice"]`); ok {
		p.SetValue(v)
	}
	return nil
}

type recordingObserver struct {
	pushed, popped []int
	submitted      []string
}

func (r *recordingObserver) StackPushed(depth int) { r.pushed = append(r.pushed, depth) }
func (r *recordingObserver) StackPopped(depth int) { r.popped = append(r.popped, depth) }
func (r *recordingObserver) Submitted(desc string) { r.submitted = append(r.submitted, desc) }

func newPanel(l *loop.Loop, slug string, order *[]string) *panelEditor {
	from := NewBase(Options{Field: model.Field{Slug: slug}})
	ed := &panelEditor{SubEditor: NewSubEditor(from, func(value any, next func()) {
		*order = append(*order, fmt.Sprintf("%s=%v", slug, value))
		l.Post(next)
	})}
	ed.SetTemplate(fmt.Sprintf(`<input name="choice" value="%s-value">`, slug))
	return ed
}

func drain(t *testing.T, l *loop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.RunUntilIdle(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestStack_LIFOCompletion(t *testing.T) {
	l := loop.New()
	doc := dom.MustParse(`<body><div id="editor-stack"></div></body>`)
	obs := &recordingObserver{}
	stack := NewStack(doc, WithObserver(obs))

	var order []string
	for _, slug := range []string{"e1", "e2", "e3"} {
		if err := stack.Push(newPanel(l, slug, &order)); err != nil {
			t.Fatalf("push %s: %v", slug, err)
		}
	}
	if hidden, _ := doc.Attr(`.editor-panel[data-depth="2"]`, "hidden"); hidden == "" {
		t.Fatalf("previous panel should be hidden while a newer editor is current")
	}

	for stack.Len() > 0 {
		if err := stack.Complete(); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if !stack.Busy() {
			t.Fatalf("stack should be busy until the submit continuation runs")
		}
		drain(t, l)
	}

	want := []string{"e3=e3-value", "e2=e2-value", "e1=e1-value"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("submit order mismatch (-want +got):\n%s", diff)
	}
	if doc.Exists(".editor-panel") {
		t.Fatalf("all panels should be removed, got %s", doc.Render())
	}
	if diff := cmp.Diff([]int{1, 2, 3}, obs.pushed); diff != "" {
		t.Fatalf("push depths (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 2, 1}, obs.popped); diff != "" {
		t.Fatalf("pop depths (-want +got):\n%s", diff)
	}
}

func TestStack_RejectsPushWhileSubmitPending(t *testing.T) {
	l := loop.New()
	doc := dom.MustParse(`<div id="editor-stack"></div>`)
	stack := NewStack(doc)
	var order []string

	if err := stack.Push(newPanel(l, "e1", &order)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stack.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := stack.Push(newPanel(l, "e2", &order)); !errors.Is(err, ErrSubmitPending) {
		t.Fatalf("expected ErrSubmitPending, got %v", err)
	}
	if err := stack.Complete(); !errors.Is(err, ErrSubmitPending) {
		t.Fatalf("expected ErrSubmitPending on double complete, got %v", err)
	}

	drain(t, l)
	if stack.Busy() || stack.Len() != 0 {
		t.Fatalf("expected idle empty stack, busy=%v len=%d", stack.Busy(), stack.Len())
	}
}

func TestStack_SyncErrorKeepsEditorOpen(t *testing.T) {
	doc := dom.MustParse(`<div id="editor-stack"></div>`)
	stack := NewStack(doc)
	submitted := false
	ed := &panelEditor{
		SubEditor: NewSubEditor(nil, func(any, func()) { submitted = true }),
		syncErr:   errors.New("unknown selection"),
	}
	if err := stack.Push(ed); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stack.Complete(); err == nil {
		t.Fatalf("expected sync error")
	}
	if submitted || stack.Len() != 1 || stack.Busy() {
		t.Fatalf("editor must stay open: submitted=%v len=%d busy=%v", submitted, stack.Len(), stack.Busy())
	}
}

func TestStack_CancelSkipsSubmit(t *testing.T) {
	doc := dom.MustParse(`<div id="editor-stack"></div>`)
	stack := NewStack(doc)
	submitted := false
	ed := &panelEditor{SubEditor: NewSubEditor(nil, func(any, func()) { submitted = true })}

	if err := stack.Cancel(); !errors.Is(err, ErrStackEmpty) {
		t.Fatalf("expected ErrStackEmpty, got %v", err)
	}
	if err := stack.Push(ed); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stack.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if submitted || stack.Len() != 0 {
		t.Fatalf("cancel must pop without submitting")
	}
}

func TestStack_CreatesMissingContainer(t *testing.T) {
	doc := dom.MustParse(`<p>page</p>`)
	stack := NewStack(doc)
	var order []string
	if err := stack.Push(newPanel(loop.New(), "e1", &order)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if !doc.Exists(`#editor-stack > .editor-panel input[name="choice"]`) {
		t.Fatalf("expected panel mounted in a created container, got %s", doc.Render())
	}
}

func TestStack_FailedAttachIsNotReported(t *testing.T) {
	doc := dom.MustParse(`<div id="editor-stack"></div>`)
	obs := &recordingObserver{}
	stack := NewStack(doc, WithObserver(obs))
	l := loop.New()
	var order []string

	if err := stack.Push(newPanel(l, "e1", &order)); err != nil {
		t.Fatalf("push e1: %v", err)
	}
	broken := newPanel(l, "e2", &order)
	broken.attachErr = errors.New("no controls")
	if err := stack.Push(broken); err == nil {
		t.Fatalf("expected attach failure")
	}

	if stack.Len() != 1 {
		t.Fatalf("failed push must leave one editor, len=%d", stack.Len())
	}
	if diff := cmp.Diff([]int{1}, obs.pushed); diff != "" {
		t.Fatalf("pushes mismatch (-want +got):\n%s", diff)
	}
	if len(obs.popped) != 0 {
		t.Fatalf("failed push must not report a pop, got %v", obs.popped)
	}
	if doc.Exists(`.editor-panel[data-depth="2"]`) {
		t.Fatalf("failed panel should be removed, got %s", doc.Render())
	}
	if _, hidden := doc.Attr(`.editor-panel[data-depth="1"]`, "hidden"); hidden {
		t.Fatalf("previous panel should be visible again")
	}
}
