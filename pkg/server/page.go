package server

import (
	"bytes"
	"context"
	"html/template"
	"io"

	"github.com/vango-dev/guisync/pkg/client"
)

// Describer is implemented by models that can say which elements accept
// commands. Models without it are rendered as plain spans.
type Describer interface {
	Elements() []ElementInfo
}

// PageData is the input of the default page template.
type PageData struct {
	Title        string
	ScriptURL    string
	ValuePrefix  string
	ErrorBoxID   string
	MessageBoxID string
	Elements     []pageElement
}

type pageElement struct {
	ID       string
	HTML     template.HTML
	Callable bool
	Settable bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- if .ScriptURL}}
<script src="{{.ScriptURL}}"></script>
{{- end}}
</head>
<body>
<h1>{{.Title}}</h1>
<div id="{{.ErrorBoxID}}"></div>
<table>
{{- range .Elements}}
<tr>
<td>{{.ID}}</td>
<td>
{{- if .Callable}}
<input type="button" id="{{.ID}}" value="{{.HTML}}" onclick="call('{{.ID}}')">
{{- else}}
<span id="{{.ID}}">{{.HTML}}</span>
{{- end}}
{{- if .Settable}}
<input type="text" id="{{$.ValuePrefix}}{{.ID}}" onfocus="notifyfocus('{{.ID}}')" onblur="notifyblur('{{.ID}}')" onchange="settext('{{.ID}}')">
{{- end}}
</td>
</tr>
{{- end}}
</table>
<p><label><input type="checkbox" id="AutoRefresh" checked onchange="setautorefresh()"> auto-refresh</label></p>
<div id="{{.MessageBoxID}}"></div>
</body>
</html>
`))

// RenderPage writes the default page for model. Element content is
// inserted as markup, unescaped. Callable elements are button inputs whose
// value is the label text, so a refresh writing the value relabels them.
func RenderPage(ctx context.Context, w io.Writer, model Model, title, scriptURL string) error {
	data := PageData{
		Title:        title,
		ScriptURL:    scriptURL,
		ValuePrefix:  client.DefaultValuePrefix,
		ErrorBoxID:   client.DefaultErrorBoxID,
		MessageBoxID: client.DefaultMessageBoxID,
	}

	if d, ok := model.(Describer); ok {
		for _, el := range d.Elements() {
			data.Elements = append(data.Elements, pageElement{
				ID:       el.ID,
				HTML:     template.HTML(el.HTML),
				Callable: el.Callable,
				Settable: el.Settable,
			})
		}
	} else {
		updates, err := model.Updates(ctx)
		if err != nil {
			return err
		}
		for _, u := range updates {
			data.Elements = append(data.Elements, pageElement{ID: u.ID, HTML: template.HTML(u.HTML)})
		}
	}

	// Render fully before writing so a template error leaves w untouched.
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
