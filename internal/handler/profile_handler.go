package handler

import (
	"net/http"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/go-chi/chi/v5"
)

// ProfileHandler serves user profiles and the profile editor.
type ProfileHandler struct {
	renderer
	blog     service.BlogServicer
	accounts service.AccountServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(bs service.BlogServicer, as service.AccountServicer, v *view.View, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{renderer: renderer{view: v, log: log}, blog: bs, accounts: as}
}

// profileHandler renders a user and a page of the posts the viewer may see.
func (h *ProfileHandler) profileHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	number, appErr := pageParam(r)
	if appErr != nil {
		return appErr
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()
	user, page, err := h.blog.Profile(r.Context(), actor, chi.URLParam(r, "username"), number)
	if err != nil {
		return fail(err, "Failed to retrieve profile")
	}
	return h.render(w, r, "profile.html", map[string]interface{}{"Profile": user, "Page": page})
}

// editHandler shows (GET) or saves (POST) the current user's own profile.
func (h *ProfileHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if !requireLogin(w, r) {
		return nil
	}
	actor := middleware.GetUserInfo(r.Context()).Actor()

	if r.Method == http.MethodGet {
		user, err := h.accounts.CurrentUser(r.Context(), actor)
		if err != nil {
			return fail(err, "Failed to retrieve profile")
		}
		form := service.ProfileForm{FirstName: user.FirstName, LastName: user.LastName, Email: user.Email}
		return h.render(w, r, "user.html", map[string]interface{}{"Form": form})
	}

	form := service.ProfileForm{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
	}
	if _, err := h.accounts.UpdateProfile(r.Context(), actor, form); err != nil {
		if errs := validationErrors(err); errs != nil {
			return h.render(w, r, "user.html", map[string]interface{}{"Form": form, "Errors": errs})
		}
		return fail(err, "Failed to update profile")
	}
	return redirect(w, r, "/edit_profile/")
}
