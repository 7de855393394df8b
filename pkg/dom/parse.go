package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML builds a Memory document from an HTML page. Every element that
// carries an id attribute becomes addressable; its initial content is the
// serialized markup of its children and, for value-capable elements, its
// initial value follows the browser's defaults (the value attribute, the
// text of a textarea, the selected option of a select).
func ParseHTML(r io.Reader) (*Memory, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}

	doc := NewMemory()
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, "id"); id != "" {
				addParsed(doc, n, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc, nil
}

func addParsed(doc *Memory, n *html.Node, id string) {
	el := doc.Add(n.Data, id)
	content := innerHTML(n)

	// Seed directly; parsing is not a change.
	switch e := el.(type) {
	case *Field:
		e.content = content
		e.value = initialValue(n)
		if n.DataAtom == atom.Input {
			switch strings.ToLower(attr(n, "type")) {
			case "checkbox", "radio":
				e.checkable = true
				_, e.checked = lookupAttr(n, "checked")
			}
		}
	case *Node:
		e.content = content
	}
}

func initialValue(n *html.Node) string {
	switch n.DataAtom {
	case atom.Textarea, atom.Output:
		return textContent(n)
	case atom.Select:
		return selectedOption(n)
	case atom.Option:
		if v, ok := lookupAttr(n, "value"); ok {
			return v
		}
		return strings.TrimSpace(textContent(n))
	default:
		return attr(n, "value")
	}
}

func selectedOption(sel *html.Node) string {
	var first, selected *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			if first == nil {
				first = n
			}
			if _, ok := lookupAttr(n, "selected"); ok && selected == nil {
				selected = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel)

	switch {
	case selected != nil:
		return initialValue(selected)
	case first != nil:
		return initialValue(first)
	default:
		return ""
	}
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
