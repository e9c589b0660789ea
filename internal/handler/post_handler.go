package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/blogicum/blogicum/internal/data"
	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/policy"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/go-chi/chi/v5"
)

// PostHandler holds the dependencies for the post and listing handlers.
type PostHandler struct {
	renderer
	blog service.BlogServicer
}

// NewPostHandler creates a new PostHandler with the given dependencies.
func NewPostHandler(bs service.BlogServicer, v *view.View, log logger.Logger) *PostHandler {
	return &PostHandler{renderer: renderer{view: v, log: log}, blog: bs}
}

// indexHandler renders the public post list.
func (h *PostHandler) indexHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	number, appErr := pageParam(r)
	if appErr != nil {
		return appErr
	}
	page, err := h.blog.Index(r.Context(), middleware.GetUserInfo(r.Context()).Actor(), number)
	if err != nil {
		return fail(err, "Failed to retrieve posts")
	}
	return h.render(w, r, "index.html", map[string]interface{}{"Page": page})
}

// categoryHandler renders a published category and its posts.
func (h *PostHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	number, appErr := pageParam(r)
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()
	category, page, err := h.blog.Category(r.Context(), actor, chi.URLParam(r, "slug"), number)
	if err != nil {
		return fail(err, "Failed to retrieve category")
	}
	return h.render(w, r, "category.html", map[string]interface{}{"Category": category, "Page": page})
}

// detailHandler renders a post with its comments.
func (h *PostHandler) detailHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	post, comments, err := h.blog.PostDetail(r.Context(), middleware.GetUserInfo(r.Context()).Actor(), id)
	if err != nil {
		return fail(err, "Failed to retrieve post")
	}
	return h.render(w, r, "detail.html", map[string]interface{}{"Post": post, "Comments": comments})
}

func (h *PostHandler) renderPostForm(w http.ResponseWriter, r *http.Request, post *data.Post, action string, errs map[string]string) *middleware.AppError {
	categories, locations, err := h.blog.FormChoices(r.Context())
	if err != nil {
		return fail(err, "Failed to load form choices")
	}
	return h.render(w, r, "create.html", map[string]interface{}{
		"Post":       post,
		"Action":     action,
		"Categories": categories,
		"Locations":  locations,
		"Errors":     errs,
	})
}

// formPost echoes submitted values back into the form.
func formPost(base *data.Post, form service.PostForm) *data.Post {
	p := *base
	p.Title, p.Text, p.PubDate = form.Title, form.Text, form.PubDate
	p.IsPublished, p.CategoryID, p.LocationID = form.IsPublished, form.CategoryID, form.LocationID
	return &p
}

// createFormHandler shows an empty post form.
func (h *PostHandler) createFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	post := &data.Post{PubDate: time.Now().UTC().Truncate(time.Minute), IsPublished: true}
	return h.renderPostForm(w, r, post, "/posts/create/", nil)
}

// createHandler stores a new post and sends the author to their profile.
func (h *PostHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	userInfo := middleware.GetUserInfo(r.Context())
	form := parsePostForm(r)
	if _, err := h.blog.CreatePost(r.Context(), userInfo.Actor(), form); err != nil {
		if errs := validationErrors(err); errs != nil {
			return h.renderPostForm(w, r, formPost(&data.Post{}, form), "/posts/create/", errs)
		}
		return fail(err, "Failed to create post")
	}
	return redirect(w, r, fmt.Sprintf("/profile/%s/", userInfo.Subject))
}

// editHandler shows the edit form (GET) or saves it (POST). Users who do not
// own the post are sent back to its detail page.
func (h *PostHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()
	detailURL := fmt.Sprintf("/posts/%d/", id)
	action := fmt.Sprintf("/posts/%d/edit/", id)

	post, err := h.blog.PostForEdit(r.Context(), actor, id)
	if err != nil {
		var authErr *policy.AuthorizationError
		if errors.As(err, &authErr) {
			return redirect(w, r, detailURL)
		}
		return fail(err, "Failed to retrieve post")
	}
	if r.Method == http.MethodGet {
		return h.renderPostForm(w, r, post, action, nil)
	}

	form := parsePostForm(r)
	if _, err := h.blog.UpdatePost(r.Context(), actor, id, form); err != nil {
		var authErr *policy.AuthorizationError
		switch {
		case errors.As(err, &authErr):
			return redirect(w, r, detailURL)
		case validationErrors(err) != nil:
			return h.renderPostForm(w, r, formPost(post, form), action, validationErrors(err))
		}
		return fail(err, "Failed to update post")
	}
	return redirect(w, r, detailURL)
}

// deleteHandler confirms (GET) or performs (POST) a post deletion. Posts the
// user does not own look as if they did not exist.
func (h *PostHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()

	if r.Method == http.MethodGet {
		post, err := h.blog.PostForEdit(r.Context(), actor, id)
		if err != nil {
			return h.deleteFailure(err)
		}
		return h.render(w, r, "create.html", map[string]interface{}{"Post": post, "Delete": true})
	}

	if err := h.blog.DeletePost(r.Context(), actor, id); err != nil {
		return h.deleteFailure(err)
	}
	h.log.With(map[string]interface{}{"post_id": id, "user": actor.Username}).Info("Post deleted")
	return redirect(w, r, "/")
}

func (h *PostHandler) deleteFailure(err error) *middleware.AppError {
	var authErr *policy.AuthorizationError
	if errors.As(err, &authErr) {
		return notFound(err)
	}
	return fail(err, "Failed to delete post")
}
