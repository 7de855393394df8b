package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/vango-dev/guisync/pkg/dom"
)

// renderer turns element markup into terminal text.
type renderer struct {
	conv *converter.Converter
}

func newRenderer() *renderer {
	return &renderer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// text converts html to single-line markdown. Markup that fails to
// convert is returned as is.
func (r *renderer) text(html string) string {
	md, err := r.conv.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(md), " ")
}

// printDocument writes one line per element in document order.
func (r *renderer) printDocument(w io.Writer, doc *dom.Memory) {
	for _, id := range doc.IDs() {
		s := doc.State(id)
		if s.HasValue {
			fmt.Fprintf(w, "%s = %q\n", id, s.Value)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", id, r.text(s.Content))
	}
}

// printChange writes one element change.
func (r *renderer) printChange(w io.Writer, c dom.Change) {
	if c.Field == "value" {
		fmt.Fprintf(w, "%s = %q\n", c.ID, c.New)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", c.ID, r.text(c.New))
}
