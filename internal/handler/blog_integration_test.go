//go:build integration

package handler

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/data"
	"github.com/blogicum/blogicum/internal/logger"
	"github.com/blogicum/blogicum/internal/middleware"
	"github.com/blogicum/blogicum/internal/service"
	"github.com/blogicum/blogicum/internal/view"
	"github.com/blogicum/blogicum/web"
	"github.com/go-chi/chi/v5"
)

type testApp struct {
	Router     *chi.Mux
	Users      *data.UserRepository
	Posts      *data.PostRepository
	Comments   *data.CommentRepository
	Categories *data.CategoryRepository
	Accounts   *service.AccountService
}

// setupIntegrationTest initializes a full application stack on an in-memory
// SQLite database.
func setupIntegrationTest(t *testing.T) (*testApp, func()) {
	t.Helper()
	db, err := data.NewDB("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := data.ApplyMigrations(db, "sqlite3", ""); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	log := logger.Nop()
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}

	app := &testApp{
		Users:      data.NewUserRepository(db),
		Posts:      data.NewPostRepository(db),
		Comments:   data.NewCommentRepository(db),
		Categories: data.NewCategoryRepository(db),
	}
	locations := data.NewLocationRepository(db)
	blog := service.NewBlogService(app.Posts, app.Comments, app.Users, app.Categories, locations, 10)
	app.Accounts = service.NewAccountService(app.Users)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.DB, 0)
	sessionManager.Lifetime = 3 * time.Minute

	enforcer, err := auth.NewMemoryEnforcer()
	if err != nil {
		t.Fatalf("Failed to create enforcer: %v", err)
	}
	auth.SeedDefaultPolicies(enforcer, log)

	handlers := Handlers{
		Posts:    NewPostHandler(blog, viewService, log),
		Comments: NewCommentHandler(blog, viewService, log),
		Profiles: NewProfileHandler(blog, app.Accounts, viewService, log),
		Pages:    NewPagesHandler(viewService, log),
		Auth:     NewAuthHandler(nil, sessionManager, app.Accounts, viewService, log),
		Seo:      NewSeoHandler(blog, "https://blog.example.com", log),
	}
	app.Router = NewRouter(handlers, web.StaticFS,
		middleware.Authorizer(enforcer, sessionManager, log, viewService),
		middleware.CSRF(log, viewService, false),
		middleware.Error(log, viewService),
		sessionManager)

	return app, func() { db.Close() }
}

// csrfInput finds the hidden CSRF field rendered into forms.
var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]*)"`)

// client keeps the cookies and CSRF token of one browser.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
	token   string
}

// newClient opens the login page once to pick up a CSRF token.
func (app *testApp) newClient(t *testing.T) *client {
	t.Helper()
	c := &client{app: app, cookies: map[string]*http.Cookie{}}
	rr := c.get(t, "/auth/login")
	m := csrfInput.FindStringSubmatch(rr.Body.String())
	if m == nil {
		t.Fatal("login page carries no CSRF token")
	}
	c.token = html.UnescapeString(m[1])
	return c
}

// register creates a user and returns a client logged in as that user.
func (app *testApp) register(t *testing.T, username string) (*data.User, *client) {
	t.Helper()
	user, err := app.Accounts.Register(context.Background(), service.RegisterForm{
		Username: username, Password: "password123", PasswordConfirm: "password123",
	})
	if err != nil {
		t.Fatalf("Failed to register %s: %v", username, err)
	}
	c := app.newClient(t)
	rr := c.post(t, "/auth/login", url.Values{"username": {username}, "password": {"password123"}})
	if rr.Code != http.StatusFound {
		t.Fatalf("login of %s: want 302; got %d", username, rr.Code)
	}
	if _, ok := c.cookies["session"]; !ok {
		t.Fatalf("login of %s set no session cookie", username)
	}
	return user, c
}

// send issues a request without adding a CSRF token.
func (c *client) send(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	c.app.Router.ServeHTTP(rr, req)
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rr
}

func (c *client) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return c.send(t, http.MethodGet, path, nil)
}

// post submits form the way a rendered page would, token included.
func (c *client) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	values := url.Values{}
	for k, v := range form {
		values[k] = v
	}
	values.Set(middleware.CSRFFieldName, c.token)
	return c.send(t, http.MethodPost, path, values)
}

func (app *testApp) post(t *testing.T, author *data.User, title string, pubDate time.Time, published bool, cat *data.Category) *data.Post {
	t.Helper()
	p := &data.Post{Title: title, Text: "Body of " + title, PubDate: pubDate, IsPublished: published, AuthorID: author.ID}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	if err := app.Posts.CreatePost(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func (app *testApp) category(t *testing.T, slug string, published bool) *data.Category {
	t.Helper()
	c := &data.Category{Title: "Category " + slug, Slug: slug, IsPublished: published}
	if _, err := app.Categories.Save(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestPublicPages_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	alice, _ := app.register(t, "alice")
	anon := app.newClient(t)
	travel := app.category(t, "travel", true)
	hidden := app.category(t, "hidden", false)
	past := time.Now().Add(-time.Hour)
	app.post(t, alice, "Visible post", past, true, travel)
	future := app.post(t, alice, "Scheduled post", time.Now().Add(24*time.Hour), true, travel)
	app.post(t, alice, "Draft post", past, false, travel)
	app.post(t, alice, "Hidden category post", past, true, hidden)

	testCases := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
		notBody    []string
	}{
		{
			name:       "Index lists only public posts",
			path:       "/",
			wantStatus: http.StatusOK,
			wantBody:   "Visible post",
			notBody:    []string{"Scheduled post", "Draft post", "Hidden category post"},
		},
		{
			name:       "Published category",
			path:       "/category/travel/",
			wantStatus: http.StatusOK,
			wantBody:   "Category travel",
			notBody:    []string{"Scheduled post", "Draft post"},
		},
		{
			name:       "Unpublished category is not found",
			path:       "/category/hidden/",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Scheduled post detail is hidden from anonymous users",
			path:       fmt.Sprintf("/posts/%d/", future.ID),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Page past the end is not found",
			path:       "/?page=5",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Last page",
			path:       "/?page=last",
			wantStatus: http.StatusOK,
			wantBody:   "Visible post",
		},
		{
			name:       "Unknown profile",
			path:       "/profile/nobody/",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Unknown route",
			path:       "/no/such/page/",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Static stylesheet",
			path:       "/static/style.css",
			wantStatus: http.StatusOK,
		},
		{
			name:       "About page",
			path:       "/about/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Sitemap lists public posts",
			path:       "/sitemap.xml",
			wantStatus: http.StatusOK,
			wantBody:   "https://blog.example.com/posts/1/",
			notBody:    []string{fmt.Sprintf("/posts/%d/", future.ID)},
		},
		{
			name:       "Robots points at the sitemap",
			path:       "/robots.txt",
			wantStatus: http.StatusOK,
			wantBody:   "Sitemap: https://blog.example.com/sitemap.xml",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := anon.get(t, tc.path)
			if rr.Code != tc.wantStatus {
				t.Errorf("want status %d; got %d", tc.wantStatus, rr.Code)
			}
			body := rr.Body.String()
			if tc.wantBody != "" && !strings.Contains(body, tc.wantBody) {
				t.Errorf("body does not contain expected string '%s'", tc.wantBody)
			}
			for _, s := range tc.notBody {
				if strings.Contains(body, s) {
					t.Errorf("body unexpectedly contains '%s'", s)
				}
			}
		})
	}
}

func TestAuthorSeesOwnHiddenPosts_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	alice, aliceClient := app.register(t, "alice")
	future := app.post(t, alice, "Scheduled post", time.Now().Add(24*time.Hour), true, nil)
	app.post(t, alice, "Draft post", time.Now().Add(-time.Hour), false, nil)

	rr := aliceClient.get(t, fmt.Sprintf("/posts/%d/", future.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("author: want 200; got %d", rr.Code)
	}

	rr = aliceClient.get(t, "/profile/alice/")
	if !strings.Contains(rr.Body.String(), "Draft post") || !strings.Contains(rr.Body.String(), "Scheduled post") {
		t.Error("own profile should list draft and scheduled posts")
	}

	_, bobClient := app.register(t, "bob")
	viewers := map[string]*client{"anonymous": app.newClient(t), "bob": bobClient}
	for name, viewer := range viewers {
		rr = viewer.get(t, fmt.Sprintf("/posts/%d/", future.ID))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: scheduled post: want 404; got %d", name, rr.Code)
		}
		rr = viewer.get(t, "/profile/alice/")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: profile: want 200; got %d", name, rr.Code)
		}
		if strings.Contains(rr.Body.String(), "Draft post") || strings.Contains(rr.Body.String(), "Scheduled post") {
			t.Errorf("%s should not see alice's draft or scheduled posts", name)
		}
	}
}

func TestAnonymousIsSentToLogin_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	anon := app.newClient(t)
	for _, path := range []string{"/posts/create/", "/posts/1/edit/", "/edit_profile/"} {
		rr := anon.get(t, path)
		if rr.Code != http.StatusFound {
			t.Errorf("%s: want 302; got %d", path, rr.Code)
			continue
		}
		want := middleware.LoginURL(path)
		if loc := rr.Header().Get("Location"); loc != want {
			t.Errorf("%s: want redirect to %s; got %s", path, want, loc)
		}
	}

	rr := anon.post(t, "/posts/1/comment/", url.Values{"text": {"hi"}})
	if rr.Code != http.StatusFound || !strings.HasPrefix(rr.Header().Get("Location"), "/auth/login") {
		t.Errorf("anonymous comment: want redirect to login; got %d %s", rr.Code, rr.Header().Get("Location"))
	}
}

func TestCreatePost_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	alice, aliceClient := app.register(t, "alice")

	rr := aliceClient.post(t, "/posts/create/", url.Values{
		"title":        {"Fresh post"},
		"text":         {"Some **markdown**"},
		"pub_date":     {time.Now().UTC().Add(-time.Minute).Format("2006-01-02T15:04")},
		"is_published": {"on"},
	})
	if rr.Code != http.StatusFound {
		t.Fatalf("want 302; got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/profile/alice/" {
		t.Errorf("want redirect to /profile/alice/; got %s", loc)
	}

	posts, err := app.Posts.ListPosts(context.Background(), data.PostFilter{AuthorUsername: alice.Username}, 10, 0)
	if err != nil || len(posts) != 1 {
		t.Fatalf("want 1 post by alice; got %d (%v)", len(posts), err)
	}

	rr = aliceClient.get(t, fmt.Sprintf("/posts/%d/", posts[0].ID))
	if !strings.Contains(rr.Body.String(), "<strong>markdown</strong>") {
		t.Error("detail page should render the markdown text")
	}

	rr = aliceClient.post(t, "/posts/create/", url.Values{"text": {"no title"}})
	if rr.Code != http.StatusOK {
		t.Errorf("invalid form: want 200; got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "errorlist") {
		t.Error("invalid form should be shown again with errors")
	}
}

func TestEditAndDeleteOwnership_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	alice, aliceClient := app.register(t, "alice")
	_, bobClient := app.register(t, "bob")
	post := app.post(t, alice, "Alice post", time.Now().Add(-time.Hour), true, nil)
	detail := fmt.Sprintf("/posts/%d/", post.ID)

	// Bob is sent back to the post when editing it.
	rr := bobClient.get(t, detail+"edit/")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != detail {
		t.Errorf("bob edit: want redirect to %s; got %d %s", detail, rr.Code, rr.Header().Get("Location"))
	}

	// Bob cannot delete it and sees a 404.
	rr = bobClient.post(t, detail+"delete/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("bob delete: want 404; got %d", rr.Code)
	}

	// Alice deletes it; the second attempt finds nothing.
	rr = aliceClient.post(t, detail+"delete/", nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("alice delete: want redirect to /; got %d %s", rr.Code, rr.Header().Get("Location"))
	}
	rr = aliceClient.post(t, detail+"delete/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("repeated delete: want 404; got %d", rr.Code)
	}
}

func TestComments_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	alice, aliceClient := app.register(t, "alice")
	_, bobClient := app.register(t, "bob")
	post := app.post(t, alice, "Alice post", time.Now().Add(-time.Hour), true, nil)
	detail := fmt.Sprintf("/posts/%d/", post.ID)

	rr := aliceClient.post(t, detail+"comment/", url.Values{"text": {"First!"}})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != detail {
		t.Fatalf("add comment: want redirect to %s; got %d %s", detail, rr.Code, rr.Header().Get("Location"))
	}
	got, err := app.Posts.GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CommentCount != 1 {
		t.Errorf("want comment count 1; got %d", got.CommentCount)
	}
	comments, _ := app.Comments.ListCommentsByPost(context.Background(), post.ID)
	if len(comments) != 1 {
		t.Fatalf("want 1 comment; got %d", len(comments))
	}
	comment := comments[0]
	editURL := fmt.Sprintf("/posts/%d/edit_comment/%d/", post.ID, comment.ID)
	deleteURL := fmt.Sprintf("/posts/%d/delete_comment/%d/", post.ID, comment.ID)

	// Bob's edit of Alice's comment is refused and changes nothing.
	rr = bobClient.post(t, editURL, url.Values{"text": {"hijacked"}})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != detail {
		t.Errorf("bob edit: want redirect to %s; got %d %s", detail, rr.Code, rr.Header().Get("Location"))
	}
	unchanged, _ := app.Comments.GetCommentByID(context.Background(), comment.ID)
	if unchanged.Text != "First!" {
		t.Errorf("comment text changed to %q", unchanged.Text)
	}

	// A comment addressed under another post does not exist.
	rr = aliceClient.get(t, fmt.Sprintf("/posts/%d/edit_comment/%d/", post.ID+100, comment.ID))
	if rr.Code != http.StatusNotFound {
		t.Errorf("wrong post id: want 404; got %d", rr.Code)
	}

	rr = aliceClient.post(t, editURL, url.Values{"text": {"Edited"}})
	if rr.Code != http.StatusFound {
		t.Errorf("alice edit: want 302; got %d", rr.Code)
	}
	edited, _ := app.Comments.GetCommentByID(context.Background(), comment.ID)
	if edited.Text != "Edited" {
		t.Errorf("want edited text; got %q", edited.Text)
	}

	rr = bobClient.post(t, deleteURL, nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != detail {
		t.Errorf("bob delete: want redirect to %s; got %d", detail, rr.Code)
	}
	rr = aliceClient.post(t, deleteURL, nil)
	if rr.Code != http.StatusFound {
		t.Errorf("alice delete: want 302; got %d", rr.Code)
	}
	rr = aliceClient.post(t, deleteURL, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("repeated delete: want 404; got %d", rr.Code)
	}
}

func TestRegisterAndEditProfile_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	carol := app.newClient(t)
	rr := carol.post(t, "/auth/register", url.Values{
		"username": {"carol"}, "password": {"password123"}, "password_confirm": {"password123"},
	})
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/profile/carol/" {
		t.Fatalf("register: want redirect to profile; got %d %s", rr.Code, rr.Header().Get("Location"))
	}
	if _, ok := carol.cookies["session"]; !ok {
		t.Fatal("register set no session cookie")
	}

	rr = carol.post(t, "/edit_profile/", url.Values{
		"first_name": {"Carol"}, "last_name": {"Smith"}, "email": {"carol@example.com"},
	})
	if rr.Code != http.StatusFound {
		t.Fatalf("edit profile: want 302; got %d", rr.Code)
	}
	user, err := app.Users.GetUserByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatal(err)
	}
	if user.FirstName != "Carol" || user.Email != "carol@example.com" {
		t.Errorf("profile not updated: %+v", user)
	}

	rr = app.newClient(t).post(t, "/auth/register", url.Values{
		"username": {"carol"}, "password": {"password123"}, "password_confirm": {"password123"},
	})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "already exists") {
		t.Errorf("duplicate register: want form with error; got %d", rr.Code)
	}
}

func TestFormsWithoutCSRFTokenAreRefused_Integration(t *testing.T) {
	app, teardown := setupIntegrationTest(t)
	defer teardown()

	alice, aliceClient := app.register(t, "alice")
	post := app.post(t, alice, "Alice post", time.Now().Add(-time.Hour), true, nil)
	deleteURL := fmt.Sprintf("/posts/%d/delete/", post.ID)

	testCases := []struct {
		name string
		form url.Values
	}{
		{name: "Missing token", form: url.Values{}},
		{name: "Forged token", form: url.Values{middleware.CSRFFieldName: {"forged"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := aliceClient.send(t, http.MethodPost, deleteURL, tc.form)
			if rr.Code != http.StatusForbidden {
				t.Fatalf("want 403; got %d", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, "Error 403") || !strings.Contains(body, "CSRF verification failed") {
				t.Errorf("want the error page; got %q", body)
			}
		})
	}
	if _, err := app.Posts.GetPostByID(context.Background(), post.ID); err != nil {
		t.Fatalf("post should survive refused deletes: %v", err)
	}

	// Logout only accepts a POST carrying the token.
	if rr := aliceClient.get(t, "/auth/logout"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET logout: want 405; got %d", rr.Code)
	}
	if rr := aliceClient.send(t, http.MethodPost, "/auth/logout", nil); rr.Code != http.StatusForbidden {
		t.Errorf("tokenless logout: want 403; got %d", rr.Code)
	}
	if rr := aliceClient.post(t, "/auth/logout", nil); rr.Code != http.StatusFound {
		t.Errorf("logout: want 302; got %d", rr.Code)
	}
	if rr := aliceClient.get(t, "/posts/create/"); rr.Code != http.StatusFound {
		t.Errorf("after logout: want redirect to login; got %d", rr.Code)
	}
}
