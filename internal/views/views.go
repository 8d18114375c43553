// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templatesFS embed.FS

// Layout wraps every page.
const Layout = "layouts/base"

// Renderer executes the embedded templates inside the base layout.
type Renderer struct {
	engine *html.Engine
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(template.FuncMap{
		"date":      formatDate,
		"datetime":  formatDateTime,
		"mediaURL":  MediaURL,
		"truncate":  truncateWords,
		"paragraph": paragraphs,
	})
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Renderer{engine: engine}, nil
}

// Render executes the named page template and returns the full document.
func (r *Renderer) Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data, Layout); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// MediaURL maps a stored media path to its public URL.
func MediaURL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + strings.TrimPrefix(rel, "/")
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

func formatDateTime(t time.Time) string {
	return t.Format("2 January 2006, 15:04")
}

// truncateWords keeps the first n words, marking the cut with an ellipsis.
func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

func paragraphs(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
