package dom

// Event is delivered to listeners registered with On.
type Event struct {
	Type     string
	Selector string
	// Target carries the matched element's attributes at dispatch time.
	Target map[string]string

	prevented bool
}

// PreventDefault marks the event so the trigger suppresses default browser
// behaviour (navigation for links, submission for forms).
func (e *Event) PreventDefault() {
	if e != nil {
		e.prevented = true
	}
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e != nil && e.prevented
}

// Element is a read-only snapshot of a matched element.
type Element struct {
	Tag   string
	Attrs map[string]string
	Text  string
}

// Handler receives dispatched events.
type Handler func(*Event)

// File is a client-side file selected into a file input.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Document is the contract editors use to reach their controls. Getters act on
// the first matched element; setters act on every matched element and report
// whether anything matched.
type Document interface {
	Exists(selector string) bool
	Val(selector string) (string, bool)
	SetVal(selector, value string) bool
	Prop(selector, name string) (bool, bool)
	SetProp(selector, name string, value bool) bool
	Attr(selector, name string) (string, bool)
	SetAttr(selector, name, value string) bool
	RemoveAttr(selector, name string) bool
	Data(selector, key string) (string, bool)
	HTML(selector string) (string, bool)
	SetHTML(selector, markup string) bool
	Append(selector, markup string) bool
	InsertAfter(selector, markup string) bool
	Elements(selector string) []Element
	Remove(selector string) bool
	Files(selector string) []File
	SetFiles(selector string, files ...File) bool
	On(selector, event string, handler Handler) int
	Trigger(selector, event string) (*Event, bool)
	Scope(selector string) (Document, error)
	Render() string
}

// Edit simulates a user typing value into a control: the value is written and
// the input and change events fire.
func Edit(doc Document, selector, value string) bool {
	if doc == nil || !doc.SetVal(selector, value) {
		return false
	}
	doc.Trigger(selector, "input")
	doc.Trigger(selector, "change")
	return true
}

// Toggle simulates a user checking or unchecking a checkbox.
func Toggle(doc Document, selector string, checked bool) bool {
	if doc == nil || !doc.SetProp(selector, "checked", checked) {
		return false
	}
	doc.Trigger(selector, "change")
	return true
}

// Click fires a click event and reports whether a listener prevented the
// default action.
func Click(doc Document, selector string) (prevented bool, ok bool) {
	if doc == nil {
		return false, false
	}
	event, ok := doc.Trigger(selector, "click")
	return event.DefaultPrevented(), ok
}
