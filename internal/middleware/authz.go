package middleware

import (
	"net/http"
	"net/url"

	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/session"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/casbin/casbin/v2"
)

// Session keys written at login.
const (
	SessionUserID  = "user_id"
	SessionSubject = "user_subject"
)

// LoginPath is where anonymous users are sent when a route needs a login.
const LoginPath = "/auth/login"

// Authorizer creates a new middleware for authorization.
// It resolves the user from the session, stores it in the request context and
// checks the user's role against the Casbin route policies. Anonymous users
// refused by a policy are redirected to the login page; everyone else gets
// the 403 error page.
func Authorizer(e casbin.IEnforcer, sm session.Manager, log logger.Logger, v *view.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := &UserInfo{Subject: RoleAnonymous, Roles: []string{RoleAnonymous}}
			if id := sm.GetInt64(r.Context(), SessionUserID); id != 0 {
				userInfo = &UserInfo{
					ID:      id,
					Subject: sm.GetString(r.Context(), SessionSubject),
					Roles:   []string{RoleUser},
				}
			}
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			allowed, err := e.Enforce(userInfo.Roles[0], r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization check failed")
				renderError(w, r, v, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			if !allowed {
				if !userInfo.Authenticated() {
					http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
					return
				}
				renderError(w, r, v, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL returns the login page that sends the user back to next afterwards.
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}
