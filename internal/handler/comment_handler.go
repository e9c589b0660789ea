package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/policy"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/view"
)

// CommentHandler holds the dependencies for the comment handlers.
type CommentHandler struct {
	renderer
	blog service.BlogServicer
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(bs service.BlogServicer, v *view.View, log logger.Logger) *CommentHandler {
	return &CommentHandler{renderer: renderer{view: v, log: log}, blog: bs}
}

// addHandler stores a comment by the current user and returns to the post.
// Invalid input is dropped silently, as the form lives on the detail page.
func (h *CommentHandler) addHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	postID, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()
	form := service.CommentForm{Text: r.FormValue("text")}
	if _, err := h.blog.AddComment(r.Context(), actor, postID, form); err != nil && validationErrors(err) == nil {
		return fail(err, "Failed to add comment")
	}
	return redirect(w, r, fmt.Sprintf("/posts/%d/", postID))
}

// commentIDs reads the post and comment ids from the path.
func commentIDs(r *http.Request) (postID, commentID int64, appErr *middleware.AppError) {
	if postID, appErr = idParam(r, "postID"); appErr != nil {
		return 0, 0, appErr
	}
	if commentID, appErr = idParam(r, "commentID"); appErr != nil {
		return 0, 0, appErr
	}
	return postID, commentID, nil
}

// commentFailure sends users who do not own the comment back to the post.
func commentFailure(w http.ResponseWriter, r *http.Request, err error, message string) *middleware.AppError {
	var authErr *policy.AuthorizationError
	if errors.As(err, &authErr) {
		return redirect(w, r, fmt.Sprintf("/posts/%d/", authErr.PostID))
	}
	return fail(err, message)
}

// editHandler shows (GET) or saves (POST) the comment edit form.
func (h *CommentHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	postID, commentID, appErr := commentIDs(r)
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()

	comment, err := h.blog.CommentForEdit(r.Context(), actor, postID, commentID)
	if err != nil {
		return commentFailure(w, r, err, "Failed to retrieve comment")
	}
	if r.Method == http.MethodGet {
		return h.render(w, r, "comment.html", map[string]interface{}{"Comment": comment})
	}

	form := service.CommentForm{Text: r.FormValue("text")}
	if _, err := h.blog.UpdateComment(r.Context(), actor, postID, commentID, form); err != nil {
		if errs := validationErrors(err); errs != nil {
			comment.Text = form.Text
			return h.render(w, r, "comment.html", map[string]interface{}{"Comment": comment, "Errors": errs})
		}
		return commentFailure(w, r, err, "Failed to update comment")
	}
	return redirect(w, r, fmt.Sprintf("/posts/%d/", postID))
}

// deleteHandler confirms (GET) or performs (POST) a comment deletion.
func (h *CommentHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	postID, commentID, appErr := commentIDs(r)
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()

	if r.Method == http.MethodGet {
		comment, err := h.blog.CommentForEdit(r.Context(), actor, postID, commentID)
		if err != nil {
			return commentFailure(w, r, err, "Failed to retrieve comment")
		}
		return h.render(w, r, "comment.html", map[string]interface{}{"Comment": comment, "Delete": true})
	}

	if err := h.blog.DeleteComment(r.Context(), actor, postID, commentID); err != nil {
		return commentFailure(w, r, err, "Failed to delete comment")
	}
	return redirect(w, r, fmt.Sprintf("/posts/%d/", postID))
}
