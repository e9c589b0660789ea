package handler

import (
	"errors"
	"net/http"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/view"
)

// PagesHandler serves the static informational pages.
type PagesHandler struct {
	renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(v *view.View, log logger.Logger) *PagesHandler {
	return &PagesHandler{renderer: renderer{view: v, log: log}}
}

// static returns a handler rendering a template with no data.
func (h *PagesHandler) static(name string) middleware.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		return h.render(w, r, name, nil)
	}
}

// notFoundHandler renders the 404 page for unknown routes.
func (h *PagesHandler) notFoundHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return notFound(errors.New("no route for " + r.URL.Path))
}
