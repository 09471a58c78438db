// Package templates handles HTML template rendering for the map page and its
// Datastar SSE fragments.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
)

// funcMap provides the helpers the map templates use.
var funcMap = template.FuncMap{
	// coord formats a latitude or longitude for attributes and captions.
	"coord": func(v float64) string {
		return fmt.Sprintf("%.6f", v)
	},
}

// Renderer manages HTML templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from every *.html file under dir and dir/fragments.
func New(dir string) (*Renderer, error) {
	tmpl, err := parseDir(dir)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// NewFS creates a renderer from the files in fsys matching patterns.
func NewFS(fsys fs.FS, patterns ...string) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parseDir(dir string) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcMap)
	for _, pattern := range []string{
		filepath.Join(dir, "*.html"),
		filepath.Join(dir, "fragments", "*.html"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	return r.Execute(buf, name, data)
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Reload reparses the templates under dir.
func (r *Renderer) Reload(dir string) error {
	tmpl, err := parseDir(dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
