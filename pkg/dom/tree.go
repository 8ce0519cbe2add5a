package dom

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Option configures a Tree.
type Option func(*treeState)

// WithSanitizer overrides the policy applied to inserted fragments. A nil
// policy disables sanitizing.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(s *treeState) {
		s.policy = policy
	}
}

type treeState struct {
	policy    *bluemonday.Policy
	selectors map[string]cascadia.Selector
	listeners map[*html.Node]map[string][]Handler
	files     map[*html.Node][]File
}

// Tree implements Document over a parsed HTML node tree. Scoped trees share
// listener and file state with the tree they were derived from.
type Tree struct {
	state *treeState
	root  *html.Node
}

var _ Document = (*Tree)(nil)

// Parse builds a Tree from page markup. Page markup is trusted and is not
// sanitized; only fragments inserted later are.
func Parse(markup string, options ...Option) (*Tree, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	state := &treeState{
		policy:    FragmentPolicy(),
		selectors: make(map[string]cascadia.Selector),
		listeners: make(map[*html.Node]map[string][]Handler),
		files:     make(map[*html.Node][]File),
	}
	for _, opt := range options {
		if opt != nil {
			opt(state)
		}
	}
	return &Tree{state: state, root: root}, nil
}

// MustParse panics when the markup cannot be parsed. Useful for fixtures.
func MustParse(markup string, options ...Option) *Tree {
	tree, err := Parse(markup, options...)
	if err != nil {
		panic(err)
	}
	return tree
}

func (t *Tree) compile(selector string) (cascadia.Selector, error) {
	if sel, ok := t.state.selectors[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	t.state.selectors[selector] = sel
	return sel, nil
}

func (t *Tree) all(selector string) []*html.Node {
	if t == nil || t.root == nil || strings.TrimSpace(selector) == "" {
		return nil
	}
	sel, err := t.compile(selector)
	if err != nil {
		return nil
	}
	return sel.MatchAll(t.root)
}

func (t *Tree) first(selector string) *html.Node {
	nodes := t.all(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Exists reports whether selector matches at least one element.
func (t *Tree) Exists(selector string) bool {
	return t.first(selector) != nil
}

// Val reads the value of the first matched control.
func (t *Tree) Val(selector string) (string, bool) {
	node := t.first(selector)
	if node == nil {
		return "", false
	}
	return controlValue(node), true
}

// SetVal writes value into every matched control.
func (t *Tree) SetVal(selector, value string) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		setControlValue(node, value)
	}
	return len(nodes) > 0
}

// Prop reads a boolean property (checked, selected, disabled, hidden).
func (t *Tree) Prop(selector, name string) (bool, bool) {
	node := t.first(selector)
	if node == nil {
		return false, false
	}
	_, present := attr(node, name)
	return present, true
}

// SetProp sets or clears a boolean property on every matched element.
func (t *Tree) SetProp(selector, name string, value bool) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		if value {
			setAttr(node, name, "")
		} else {
			removeAttr(node, name)
		}
	}
	return len(nodes) > 0
}

// Attr reads an attribute of the first matched element.
func (t *Tree) Attr(selector, name string) (string, bool) {
	node := t.first(selector)
	if node == nil {
		return "", false
	}
	return attr(node, name)
}

// SetAttr writes an attribute on every matched element.
func (t *Tree) SetAttr(selector, name, value string) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		setAttr(node, name, value)
	}
	return len(nodes) > 0
}

// RemoveAttr removes an attribute from every matched element.
func (t *Tree) RemoveAttr(selector, name string) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		removeAttr(node, name)
	}
	return len(nodes) > 0
}

// Data reads a data-* attribute of the first matched element.
func (t *Tree) Data(selector, key string) (string, bool) {
	value, ok := t.Attr(selector, "data-"+key)
	return value, ok
}

// HTML renders the inner markup of the first matched element.
func (t *Tree) HTML(selector string) (string, bool) {
	node := t.first(selector)
	if node == nil {
		return "", false
	}
	var buf bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		_ = html.Render(&buf, child)
	}
	return buf.String(), true
}

// SetHTML replaces the children of every matched element with the sanitized
// fragment. Listeners bound to the replaced nodes are dropped with them.
func (t *Tree) SetHTML(selector, markup string) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		for child := node.FirstChild; child != nil; {
			next := child.NextSibling
			node.RemoveChild(child)
			t.forget(child)
			child = next
		}
		t.appendFragment(node, markup)
	}
	return len(nodes) > 0
}

// Append adds the sanitized fragment as the last children of every matched
// element.
func (t *Tree) Append(selector, markup string) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		t.appendFragment(node, markup)
	}
	return len(nodes) > 0
}

// InsertAfter inserts the sanitized fragment as the next siblings of every
// matched element.
func (t *Tree) InsertAfter(selector, markup string) bool {
	nodes := t.all(selector)
	if t.state != nil && t.state.policy != nil {
		markup = t.state.policy.Sanitize(markup)
	}
	inserted := false
	for _, node := range nodes {
		parent := node.Parent
		if parent == nil {
			continue
		}
		fragment, err := html.ParseFragment(strings.NewReader(markup), parent)
		if err != nil {
			continue
		}
		next := node.NextSibling
		for _, child := range fragment {
			if child.Parent != nil {
				child.Parent.RemoveChild(child)
			}
			parent.InsertBefore(child, next)
		}
		inserted = true
	}
	return inserted
}

// Elements snapshots every matched element in document order.
func (t *Tree) Elements(selector string) []Element {
	nodes := t.all(selector)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, Element{
			Tag:   node.Data,
			Attrs: attrMap(node),
			Text:  strings.TrimSpace(textContent(node)),
		})
	}
	return out
}

// Remove detaches every matched element.
func (t *Tree) Remove(selector string) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
		t.forget(node)
	}
	return len(nodes) > 0
}

// Files returns the files selected into the first matched file input.
func (t *Tree) Files(selector string) []File {
	node := t.first(selector)
	if node == nil {
		return nil
	}
	return append([]File(nil), t.state.files[node]...)
}

// SetFiles selects files into every matched file input.
func (t *Tree) SetFiles(selector string, files ...File) bool {
	nodes := t.all(selector)
	for _, node := range nodes {
		t.state.files[node] = append([]File(nil), files...)
	}
	return len(nodes) > 0
}

// On binds handler to event on the elements currently matched by selector and
// returns how many elements were bound. Elements inserted later are not bound.
func (t *Tree) On(selector, event string, handler Handler) int {
	if handler == nil {
		return 0
	}
	nodes := t.all(selector)
	for _, node := range nodes {
		byEvent := t.state.listeners[node]
		if byEvent == nil {
			byEvent = make(map[string][]Handler)
			t.state.listeners[node] = byEvent
		}
		byEvent[event] = append(byEvent[event], handler)
	}
	return len(nodes)
}

// Trigger dispatches event to the listeners of every matched element, in
// document order then registration order. The returned event aggregates
// PreventDefault calls.
func (t *Tree) Trigger(selector, event string) (*Event, bool) {
	nodes := t.all(selector)
	if len(nodes) == 0 {
		return nil, false
	}
	aggregate := &Event{Type: event, Selector: selector}
	for _, node := range nodes {
		handlers := append([]Handler(nil), t.state.listeners[node][event]...)
		if len(handlers) == 0 {
			continue
		}
		ev := &Event{Type: event, Selector: selector, Target: attrMap(node)}
		for _, handler := range handlers {
			handler(ev)
		}
		if ev.prevented {
			aggregate.prevented = true
		}
	}
	return aggregate, true
}

// Scope returns a Document rooted at the first element matched by selector.
func (t *Tree) Scope(selector string) (Document, error) {
	if _, err := t.compile(selector); err != nil {
		return nil, err
	}
	node := t.first(selector)
	if node == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return &Tree{state: t.state, root: node}, nil
}

// Render serializes the tree (or the scoped element) back to markup.
func (t *Tree) Render() string {
	if t == nil || t.root == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, t.root)
	return buf.String()
}

func (t *Tree) appendFragment(parent *html.Node, markup string) {
	if t.state.policy != nil {
		markup = t.state.policy.Sanitize(markup)
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return
	}
	for _, node := range nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
		parent.AppendChild(node)
	}
}

func (t *Tree) forget(node *html.Node) {
	delete(t.state.listeners, node)
	delete(t.state.files, node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		t.forget(child)
	}
}
