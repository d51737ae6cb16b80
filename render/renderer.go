package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/transfer-state/transfer-state/session"
)

// Renderer produces the markup for one render pass. Implementations must do
// all their data loading through the pass client before returning, since the
// state snapshot is taken once, when Render returns.
type Renderer interface {
	Render(ctx context.Context, p *Pass) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, p *Pass) ([]byte, error)

func (f RendererFunc) Render(ctx context.Context, p *Pass) ([]byte, error) {
	return f(ctx, p)
}

// Route maps a path prefix to a template and the upstream path that provides
// its data. The first matching prefix wins.
type Route struct {
	Prefix   string `yaml:"prefix"`
	Fetch    string `yaml:"fetch"`
	Template string `yaml:"template"`
}

// TemplateRenderer renders documents from html/template templates, loading
// each route's data through the pass client. It is the renderer the shipped
// binary uses.
type TemplateRenderer struct {
	Templates *template.Template
	Routes    []Route
}

// PageData is the execution context handed to templates.
type PageData struct {
	// Data is the decoded response body of the route's fetch, if any.
	Data     any
	BaseHref string
	Locale   Locale
	Session  *session.Session
	Path     string
}

func (tr *TemplateRenderer) Render(ctx context.Context, p *Pass) ([]byte, error) {
	path := localPath(p)
	route := tr.findRoute(path)
	if route == nil {
		return nil, fmt.Errorf("no route for path %s", path)
	}

	var data any
	if route.Fetch != "" {
		body, err := p.Client.Get(ctx, route.Fetch, p.Request.URL.Query())
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("decoding data for %s: %w", route.Fetch, err)
		}
	}

	buf := &bytes.Buffer{}
	err := tr.Templates.ExecuteTemplate(buf, route.Template, &PageData{
		Data:     data,
		BaseHref: p.BaseHref,
		Locale:   p.Locale,
		Session:  p.Session,
		Path:     path,
	})
	// partial output still goes back so the coordinator can do a best-effort
	// response
	return buf.Bytes(), err
}

// findRoute returns the first route whose prefix matches,
// or nil if none match.
func (tr *TemplateRenderer) findRoute(path string) *Route {
	for i, route := range tr.Routes {
		if strings.HasPrefix(path, route.Prefix) {
			return &tr.Routes[i]
		}
	}
	return nil
}

// localPath strips the locale base path off the request path, so routes are
// written once and work for every locale variant.
func localPath(p *Pass) string {
	base := strings.TrimSuffix(p.Locale.BasePath, "/")
	path := p.Request.URL.Path
	if base != "" {
		path = strings.TrimPrefix(path, base)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
