package handler

import (
	"io/fs"
	"net/http"

	appmw "github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the handler sets mounted by NewRouter.
type Handlers struct {
	Posts    *PostHandler
	Comments *CommentHandler
	Profiles *ProfileHandler
	Pages    *PagesHandler
	Auth     *AuthHandler
	Seo      *SeoHandler
}

// NewRouter creates and configures a new chi router. Every route except
// unknown paths passes through the authorization and CSRF middleware.
func NewRouter(h Handlers, staticFS fs.FS, authzMiddleware, csrfMiddleware func(http.Handler) http.Handler,
	errorMiddleware func(appmw.AppHandler) http.Handler, sm session.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(sm.LoadAndSave)

	r.Group(func(r chi.Router) {
		r.Use(authzMiddleware)
		r.Use(csrfMiddleware)

		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
		r.Get("/robots.txt", h.Seo.robotsHandler)
		r.Get("/sitemap.xml", h.Seo.sitemapHandler)

		r.Method(http.MethodGet, "/", errorMiddleware(h.Posts.indexHandler))
		r.Method(http.MethodGet, "/category/{slug}/", errorMiddleware(h.Posts.categoryHandler))
		r.Method(http.MethodGet, "/posts/create/", errorMiddleware(h.Posts.createFormHandler))
		r.Method(http.MethodPost, "/posts/create/", errorMiddleware(h.Posts.createHandler))
		r.Method(http.MethodGet, "/posts/{id}/", errorMiddleware(h.Posts.detailHandler))
		r.Method(http.MethodGet, "/posts/{id}/edit/", errorMiddleware(h.Posts.editHandler))
		r.Method(http.MethodPost, "/posts/{id}/edit/", errorMiddleware(h.Posts.editHandler))
		r.Method(http.MethodGet, "/posts/{id}/delete/", errorMiddleware(h.Posts.deleteHandler))
		r.Method(http.MethodPost, "/posts/{id}/delete/", errorMiddleware(h.Posts.deleteHandler))

		r.Method(http.MethodPost, "/posts/{id}/comment/", errorMiddleware(h.Comments.addHandler))
		r.Method(http.MethodGet, "/posts/{postID}/edit_comment/{commentID}/", errorMiddleware(h.Comments.editHandler))
		r.Method(http.MethodPost, "/posts/{postID}/edit_comment/{commentID}/", errorMiddleware(h.Comments.editHandler))
		r.Method(http.MethodGet, "/posts/{postID}/delete_comment/{commentID}/", errorMiddleware(h.Comments.deleteHandler))
		r.Method(http.MethodPost, "/posts/{postID}/delete_comment/{commentID}/", errorMiddleware(h.Comments.deleteHandler))

		r.Method(http.MethodGet, "/profile/{username}/", errorMiddleware(h.Profiles.profileHandler))
		r.Method(http.MethodGet, "/edit_profile/", errorMiddleware(h.Profiles.editHandler))
		r.Method(http.MethodPost, "/edit_profile/", errorMiddleware(h.Profiles.editHandler))

		r.Method(http.MethodGet, "/about/", errorMiddleware(h.Pages.static("about.html")))
		r.Method(http.MethodGet, "/rules/", errorMiddleware(h.Pages.static("rules.html")))

		r.Method(http.MethodGet, "/auth/login", errorMiddleware(h.Auth.loginFormHandler))
		r.Method(http.MethodPost, "/auth/login", errorMiddleware(h.Auth.loginHandler))
		r.Method(http.MethodGet, "/auth/register", errorMiddleware(h.Auth.registerFormHandler))
		r.Method(http.MethodPost, "/auth/register", errorMiddleware(h.Auth.registerHandler))
		r.Post("/auth/logout", h.Auth.handleLogout)
		r.Get("/auth/oidc/login", h.Auth.handleOIDCLogin)
		r.Get("/auth/oidc/callback", h.Auth.handleOIDCCallback)
	})

	r.NotFound(errorMiddleware(h.Pages.notFoundHandler).ServeHTTP)

	return r
}
