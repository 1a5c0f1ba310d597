// Package render turns tasks into HTML: the full list page and the single-task
// fragment that AJAX responses carry.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"

	"tasklist/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	pageTemplate     = "index.html"
	fragmentTemplate = "task_item"
)

type Renderer struct {
	tmpl    *template.Template
	heading string
}

type Option func(*Renderer)

// WithHeading sets the page title. Surrounding space is trimmed and a blank
// heading falls back to "Tasks".
func WithHeading(heading string) Option {
	return func(r *Renderer) { r.heading = heading }
}

type page struct {
	Heading string
	Tasks   []storage.Task
	Open    int
}

func New(opts ...Option) (*Renderer, error) {
	funcs := sprig.HtmlFuncMap()
	funcs["ago"] = humanize.Time
	funcs["iso"] = func(t time.Time) string { return t.UTC().Format(time.RFC3339) }

	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r := &Renderer{tmpl: tmpl}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Page writes the full document listing tasks in the order given.
func (r *Renderer) Page(w io.Writer, tasks []storage.Task) error {
	open := 0
	for _, task := range tasks {
		if !task.Completed {
			open++
		}
	}
	return r.tmpl.ExecuteTemplate(w, pageTemplate, page{Heading: r.heading, Tasks: tasks, Open: open})
}

func (r *Renderer) Fragment(task storage.Task) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, fragmentTemplate, task); err != nil {
		return "", err
	}
	return buf.String(), nil
}
