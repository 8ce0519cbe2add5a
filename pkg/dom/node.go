package dom

import (
	"strings"

	"golang.org/x/net/html"
)

func attr(node *html.Node, name string) (string, bool) {
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(node *html.Node, name, value string) {
	for i, a := range node.Attr {
		if a.Namespace == "" && a.Key == name {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(node *html.Node, name string) {
	out := node.Attr[:0]
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	node.Attr = out
}

func attrMap(node *html.Node) map[string]string {
	out := make(map[string]string, len(node.Attr))
	for _, a := range node.Attr {
		out[a.Key] = a.Val
	}
	return out
}

func textContent(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}

func options(node *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(node)
	return out
}

func optionValue(option *html.Node) string {
	if value, ok := attr(option, "value"); ok {
		return value
	}
	return strings.TrimSpace(textContent(option))
}

// controlValue mirrors what a form control reports as its value. A select
// without a selected option reports "" (no selection).
func controlValue(node *html.Node) string {
	switch node.Data {
	case "textarea":
		return textContent(node)
	case "select":
		for _, option := range options(node) {
			if _, selected := attr(option, "selected"); selected {
				return optionValue(option)
			}
		}
		return ""
	default:
		value, _ := attr(node, "value")
		return value
	}
}

func setControlValue(node *html.Node, value string) {
	switch node.Data {
	case "textarea":
		for child := node.FirstChild; child != nil; {
			next := child.NextSibling
			node.RemoveChild(child)
			child = next
		}
		if value != "" {
			node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		}
	case "select":
		for _, option := range options(node) {
			if value != "" && optionValue(option) == value {
				setAttr(option, "selected", "")
			} else {
				removeAttr(option, "selected")
			}
		}
	default:
		setAttr(node, "value", value)
	}
}
