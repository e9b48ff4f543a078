// Package site serves the landing page at the service root.
package site

import (
	"context"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Link is one entry on the landing page.
type Link struct {
	Path        string
	Description string
}

// DefaultLinks lists the routes served by the API.
func DefaultLinks() []Link {
	return []Link{
		{Path: "/stats", Description: "Global statistics"},
		{Path: "/stats/{class_id}", Description: "Statistics for one class"},
		{Path: "/status", Description: "Service state"},
		{Path: "/healthz", Description: "Source health"},
		{Path: "/metrics", Description: "Prometheus metrics"},
		{Path: "/api-docs", Description: "API reference"},
	}
}

// Register attaches the landing page to r.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/", NewRootHandler(DefaultLinks()).HandleRoot)
}

// RootHandler renders the landing page.
type RootHandler struct {
	links []Link
}

// NewRootHandler creates a new root handler.
func NewRootHandler(links []Link) *RootHandler {
	return &RootHandler{links: links}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = rootTemplate.Execute(w, h.links)
}

var rootTemplate = template.Must(template.New("root").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Grade Statistics</title>
  </head>
  <body>
    <h1>Grade Statistics</h1>
    <ul>
    {{- range .}}
      <li><a href="{{.Path}}">{{.Path}}</a> {{.Description}}</li>
    {{- end}}
    </ul>
  </body>
</html>`))
