package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/data"
	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/session"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/google/uuid"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	renderer
	auth     *auth.Authenticator
	session  session.Manager
	accounts service.AccountServicer
}

// NewAuthHandler creates a new AuthHandler. a may be nil when OIDC login is
// not configured.
func NewAuthHandler(a *auth.Authenticator, sm session.Manager, as service.AccountServicer, v *view.View, log logger.Logger) *AuthHandler {
	return &AuthHandler{renderer: renderer{view: v, log: log}, auth: a, session: sm, accounts: as}
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// logIn stores the user in a fresh session.
func (h *AuthHandler) logIn(r *http.Request, user *data.User) error {
	// Renew the token to prevent session fixation.
	if err := h.session.RenewToken(r.Context()); err != nil {
		return err
	}
	h.session.Put(r.Context(), middleware.SessionUserID, user.ID)
	h.session.Put(r.Context(), middleware.SessionSubject, user.Username)
	return nil
}

// loginFormHandler shows the login form.
func (h *AuthHandler) loginFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "login.html", map[string]interface{}{
		"Next":        r.URL.Query().Get("next"),
		"OIDCEnabled": h.auth != nil,
	})
}

// loginHandler checks the submitted credentials.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := r.FormValue("username")
	next := r.FormValue("next")
	user, err := h.accounts.Authenticate(r.Context(), username, r.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return h.render(w, r, "login.html", map[string]interface{}{
				"Next":        next,
				"Username":    username,
				"Error":       "Please enter a correct username and password.",
				"OIDCEnabled": h.auth != nil,
			})
		}
		return fail(err, "Failed to log in")
	}
	if err := h.logIn(r, user); err != nil {
		return fail(err, "Failed to start session")
	}
	return redirect(w, r, safeNext(next))
}

// registerFormHandler shows the sign-up form.
func (h *AuthHandler) registerFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.render(w, r, "registration.html", map[string]interface{}{"Form": service.RegisterForm{}})
}

// registerHandler creates a local account and logs the new user in.
func (h *AuthHandler) registerHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	form := service.RegisterForm{
		Username:        r.FormValue("username"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}
	user, err := h.accounts.Register(r.Context(), form)
	if err != nil {
		if errs := validationErrors(err); errs != nil {
			form.Password, form.PasswordConfirm = "", ""
			return h.render(w, r, "registration.html", map[string]interface{}{"Form": form, "Errors": errs})
		}
		return fail(err, "Failed to register")
	}
	if err := h.logIn(r, user); err != nil {
		return fail(err, "Failed to start session")
	}
	h.log.With(map[string]interface{}{"user": user.Username}).Info("User registered")
	return redirect(w, r, "/profile/"+user.Username+"/")
}

// handleLogout destroys the session and returns to the front page.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Destroy(r.Context()); err != nil {
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleOIDCLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		http.NotFound(w, r)
		return
	}
	state := uuid.NewString()
	// Store the state in a short-lived cookie to verify on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     "state",
		Value:    state,
		Path:     "/",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
}

// oidcClaims are the ID token claims used to seed a new local profile.
type oidcClaims struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

func (c oidcClaims) username() string {
	switch {
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.Email != "":
		return c.Email
	}
	return c.Subject
}

// handleOIDCCallback is the redirect URL for the OIDC provider.
// It handles the code exchange and token verification.
func (h *AuthHandler) handleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		http.NotFound(w, r)
		return
	}
	// Verify the state parameter to prevent CSRF attacks.
	stateCookie, err := r.Cookie("state")
	if err != nil {
		http.Error(w, "state cookie not found", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		http.Error(w, "state did not match", http.StatusBadRequest)
		return
	}

	oauth2Token, err := h.auth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.log.Error(err, "Failed to exchange token")
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "No id_token field in oauth2 token", http.StatusInternalServerError)
		return
	}
	// The OIDC library internally checks the issuer, audience, and expiry.
	idToken, err := h.auth.IDTokenVerifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		h.log.Error(err, "Failed to verify ID token")
		http.Error(w, "Failed to verify ID Token", http.StatusInternalServerError)
		return
	}
	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		http.Error(w, "Failed to parse claims", http.StatusInternalServerError)
		return
	}

	user, err := h.accounts.EnsureExternalUser(r.Context(), service.ExternalIdentity{
		Issuer:    idToken.Issuer,
		Subject:   idToken.Subject,
		Username:  claims.username(),
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	})
	if err != nil {
		h.log.Error(err, "Failed to provision user")
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	if err := h.logIn(r, user); err != nil {
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "state", Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}
