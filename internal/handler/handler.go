package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/go-chi/chi/v5"
)

// renderer is embedded by the page handlers for the shared plumbing.
type renderer struct {
	view *view.View
	log  logger.Logger
}

// render writes a template with the current user added to data.
func (h renderer) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["UserInfo"] = middleware.GetUserInfo(r.Context())
	data["CSRFToken"] = middleware.CSRFToken(r)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.view.Render(w, r, name, data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render " + name, Code: http.StatusInternalServerError}
	}
	return nil
}

// fail translates a service error into an error page.
func fail(err error, message string) *middleware.AppError {
	if errors.Is(err, service.ErrNotFound) {
		return notFound(err)
	}
	return &middleware.AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

func notFound(err error) *middleware.AppError {
	return &middleware.AppError{Error: err, Message: "Page not found", Code: http.StatusNotFound}
}

// redirect sends a 302 to target.
func redirect(w http.ResponseWriter, r *http.Request, target string) *middleware.AppError {
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

// requireLogin redirects anonymous users to the login page. It returns
// false when the request has been answered.
func requireLogin(w http.ResponseWriter, r *http.Request) bool {
	if middleware.GetUserInfo(r.Context()).Authenticated() {
		return true
	}
	http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusFound)
	return false
}

// idParam parses a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound(errors.New("invalid " + name))
	}
	return id, nil
}

// pageParam reads ?page=N; "last" selects the final page.
func pageParam(r *http.Request) (int, *middleware.AppError) {
	raw := r.URL.Query().Get("page")
	switch raw {
	case "":
		return 1, nil
	case "last":
		return service.LastPage, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, notFound(errors.New("invalid page number"))
	}
	return n, nil
}

var pubDateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// parsePostForm decodes the post form. Unparseable dates and ids are left
// empty so that validation reports them.
func parsePostForm(r *http.Request) service.PostForm {
	form := service.PostForm{
		Title:       r.FormValue("title"),
		Text:        r.FormValue("text"),
		IsPublished: r.FormValue("is_published") != "",
		CategoryID:  optionalID(r.FormValue("category")),
		LocationID:  optionalID(r.FormValue("location")),
	}
	raw := strings.TrimSpace(r.FormValue("pub_date"))
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			form.PubDate = t
			break
		}
	}
	return form
}

func optionalID(raw string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// validationErrors extracts field messages, or nil when err is not a
// validation failure.
func validationErrors(err error) map[string]string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
