package widgets

import (
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-editors/pkg/dom"
)

// Config carries the attach-time widget settings.
type Config struct {
	DateFormat     string
	DateViewMode   string
	ShowImageLabel bool
}

// DefaultConfig returns the stock picker configuration: ISO dates navigated
// year first, image thumbnails without labels.
func DefaultConfig() Config {
	return Config{DateFormat: "yyyy-mm-dd", DateViewMode: "years"}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.DateFormat) == "" {
		c.DateFormat = def.DateFormat
	}
	if strings.TrimSpace(c.DateViewMode) == "" {
		c.DateViewMode = def.DateViewMode
	}
	return c
}

// DatePicker marks a control as a calendar picker. The client-side widget reads
// its configuration from the data attributes.
type DatePicker struct {
	Format   string
	ViewMode string
}

// Enhance implements Enhancer.
func (d DatePicker) Enhance(doc dom.Document, selector string) error {
	if doc == nil || !doc.Exists(selector) {
		return nil
	}
	doc.SetAttr(selector, "data-provide", WidgetDatePicker)
	doc.SetAttr(selector, "data-date-format", d.Format)
	doc.SetAttr(selector, "data-date-view-mode", d.ViewMode)
	return nil
}

// ImagePicker turns a select of images into a thumbnail list. Each option
// contributes its data-img-src; clicking a thumbnail selects the option and
// fires change on the select, exactly as choosing it directly would.
type ImagePicker struct {
	ShowLabel bool
}

const imagePickerMarker = "data-picker"

// Enhance implements Enhancer. Selects already enhanced are left alone.
func (p ImagePicker) Enhance(doc dom.Document, selector string) error {
	if doc == nil || !doc.Exists(selector) {
		return nil
	}
	if marker, _ := doc.Attr(selector, imagePickerMarker); marker == WidgetImagePicker {
		return nil
	}

	options := doc.Elements(selector + " option")
	var b strings.Builder
	b.WriteString(`<ul class="thumbnails image_picker_selector">`)
	for _, option := range options {
		value, ok := option.Attrs["value"]
		if !ok || value == "" {
			continue
		}
		fmt.Fprintf(&b, `<li data-value="%s"><div class="thumbnail">`, html.EscapeString(value))
		if src := option.Attrs["data-img-src"]; src != "" {
			fmt.Fprintf(&b, `<img class="image_picker_image" src="%s">`, html.EscapeString(src))
		}
		if p.ShowLabel && option.Text != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(option.Text))
		}
		b.WriteString(`</div></li>`)
	}
	b.WriteString(`</ul>`)

	doc.SetAttr(selector, imagePickerMarker, WidgetImagePicker)
	doc.SetProp(selector, "hidden", true)
	doc.InsertAfter(selector, b.String())

	for _, option := range options {
		value := option.Attrs["value"]
		if value == "" {
			continue
		}
		thumb := fmt.Sprintf(`ul.image_picker_selector li[data-value=%q]`, value)
		doc.On(thumb, "click", func(e *dom.Event) {
			e.PreventDefault()
			doc.SetVal(selector, value)
			doc.Trigger(selector, "change")
		})
	}
	return nil
}
