package middleware

import (
	"net/http"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/justinas/nosurf"
)

// CSRFFieldName is the form field carrying the token.
const CSRFFieldName = nosurf.FormFieldName

// CSRF rejects unsafe requests whose form or X-CSRF-Token header does not
// match the token cookie. Rejections render the error page with 403.
func CSRF(log logger.Logger, v *view.View, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := nosurf.New(next)
		h.SetBaseCookie(http.Cookie{
			Name:     nosurf.CookieName,
			Path:     "/",
			MaxAge:   nosurf.MaxAge,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := map[string]interface{}{"path": r.URL.Path, "method": r.Method}
			if reason := nosurf.Reason(r); reason != nil {
				fields["reason"] = reason.Error()
			}
			log.With(fields).Warn("CSRF verification failed")
			renderError(w, r, v, http.StatusForbidden, "CSRF verification failed. Request aborted.")
		}))
		return h
	}
}

// CSRFToken returns the token to embed in forms rendered for r.
func CSRFToken(r *http.Request) string {
	return nosurf.Token(r)
}
