package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blogicum/blogicum/internal/data"
	"github.com/blogicum/blogicum/internal/policy"
	"github.com/go-playground/validator/v10"
)

// PostRepository defines the interface for database operations on posts.
type PostRepository interface {
	ListPosts(ctx context.Context, f data.PostFilter, limit, offset int) ([]*data.Post, error)
	CountPosts(ctx context.Context, f data.PostFilter) (int, error)
	GetPostByID(ctx context.Context, id int64) (*data.Post, error)
	CreatePost(ctx context.Context, post *data.Post) error
	UpdatePost(ctx context.Context, post *data.Post) error
	DeletePost(ctx context.Context, id, authorID int64) error
}

// CommentRepository defines the interface for database operations on comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *data.Comment) error
	GetCommentByID(ctx context.Context, id int64) (*data.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]*data.Comment, error)
	UpdateCommentText(ctx context.Context, id, authorID int64, text string) error
	DeleteComment(ctx context.Context, id, authorID int64) error
}

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *data.User) error
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	GetUserByOIDCSubject(ctx context.Context, subject string) (*data.User, error)
	GetUserByID(ctx context.Context, id int64) (*data.User, error)
	UpdateProfile(ctx context.Context, user *data.User) error
}

// CategoryRepository defines the interface for database operations on categories.
type CategoryRepository interface {
	GetBySlug(ctx context.Context, slug string) (*data.Category, error)
	GetAll(ctx context.Context) ([]*data.Category, error)
}

// LocationRepository defines the interface for database operations on locations.
type LocationRepository interface {
	GetAll(ctx context.Context) ([]*data.Location, error)
}

// BlogServicer is what the HTTP layer needs from the blog.
type BlogServicer interface {
	Index(ctx context.Context, viewer policy.Actor, page int) (*PostPage, error)
	Profile(ctx context.Context, viewer policy.Actor, username string, page int) (*data.User, *PostPage, error)
	Category(ctx context.Context, viewer policy.Actor, slug string, page int) (*data.Category, *PostPage, error)
	PostDetail(ctx context.Context, viewer policy.Actor, id int64) (*data.Post, []*data.Comment, error)
	FormChoices(ctx context.Context) ([]*data.Category, []*data.Location, error)
	CreatePost(ctx context.Context, actor policy.Actor, form PostForm) (*data.Post, error)
	PostForEdit(ctx context.Context, actor policy.Actor, id int64) (*data.Post, error)
	UpdatePost(ctx context.Context, actor policy.Actor, id int64, form PostForm) (*data.Post, error)
	DeletePost(ctx context.Context, actor policy.Actor, id int64) error
	AddComment(ctx context.Context, actor policy.Actor, postID int64, form CommentForm) (*data.Comment, error)
	CommentForEdit(ctx context.Context, actor policy.Actor, postID, commentID int64) (*data.Comment, error)
	UpdateComment(ctx context.Context, actor policy.Actor, postID, commentID int64, form CommentForm) (*data.Comment, error)
	DeleteComment(ctx context.Context, actor policy.Actor, postID, commentID int64) error
	PublicPosts(ctx context.Context) ([]*data.Post, error)
}

// BlogService provides the post, comment, profile and category operations.
type BlogService struct {
	posts      PostRepository
	comments   CommentRepository
	users      UserRepository
	categories CategoryRepository
	locations  LocationRepository
	markup     *Markup
	validate   *validator.Validate
	pageSize   int
	now        func() time.Time
}

var _ BlogServicer = (*BlogService)(nil)

// NewBlogService creates a BlogService listing pageSize posts per page.
func NewBlogService(posts PostRepository, comments CommentRepository, users UserRepository,
	categories CategoryRepository, locations LocationRepository, pageSize int) *BlogService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &BlogService{
		posts:      posts,
		comments:   comments,
		users:      users,
		categories: categories,
		locations:  locations,
		markup:     NewMarkup(),
		validate:   newValidator(),
		pageSize:   pageSize,
		now:        time.Now,
	}
}

func (s *BlogService) listPosts(ctx context.Context, f data.PostFilter, number int) (*PostPage, error) {
	total, err := s.posts.CountPosts(ctx, f)
	if err != nil {
		return nil, err
	}
	number, pages, offset, err := paginate(total, number, s.pageSize)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListPosts(ctx, f, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Number: number, TotalPages: pages, TotalItems: total}, nil
}

// Index lists the publicly visible posts.
func (s *BlogService) Index(ctx context.Context, viewer policy.Actor, page int) (*PostPage, error) {
	return s.listPosts(ctx, policy.ListFilter(viewer, policy.IndexScope, s.now()), page)
}

// Profile returns a user and a page of their posts. Users looking at their
// own profile also see unpublished and scheduled posts.
func (s *BlogService) Profile(ctx context.Context, viewer policy.Actor, username string, page int) (*data.User, *PostPage, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.listPosts(ctx, policy.ListFilter(viewer, policy.ProfileScope(user.Username), s.now()), page)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

// Category returns a published category and a page of its visible posts.
func (s *BlogService) Category(ctx context.Context, viewer policy.Actor, slug string, page int) (*data.Category, *PostPage, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if !category.IsPublished {
		return nil, nil, ErrNotFound
	}
	posts, err := s.listPosts(ctx, policy.ListFilter(viewer, policy.CategoryScope(slug), s.now()), page)
	if err != nil {
		return nil, nil, err
	}
	return category, posts, nil
}

// PostDetail returns a post visible to viewer together with its comments.
func (s *BlogService) PostDetail(ctx context.Context, viewer policy.Actor, id int64) (*data.Post, []*data.Comment, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !policy.PostVisibleTo(viewer, post, s.now()) {
		return nil, nil, ErrNotFound
	}
	post.HTMLText = s.markup.Render(post.Text)

	comments, err := s.comments.ListCommentsByPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// FormChoices lists the categories and locations a post may be filed under.
func (s *BlogService) FormChoices(ctx context.Context) ([]*data.Category, []*data.Location, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	locations, err := s.locations.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return categories, locations, nil
}

// validatePost checks the struct tags and that the chosen category and
// location exist.
func (s *BlogService) validatePost(ctx context.Context, form *PostForm) error {
	form.Title = strings.TrimSpace(form.Title)
	if err := validateForm(s.validate, form); err != nil {
		return err
	}
	if form.CategoryID == nil && form.LocationID == nil {
		return nil
	}
	categories, locations, err := s.FormChoices(ctx)
	if err != nil {
		return err
	}
	if form.CategoryID != nil && !containsID(categories, *form.CategoryID, func(c *data.Category) int64 { return c.ID }) {
		return fieldError("category", "Select a valid choice.")
	}
	if form.LocationID != nil && !containsID(locations, *form.LocationID, func(l *data.Location) int64 { return l.ID }) {
		return fieldError("location", "Select a valid choice.")
	}
	return nil
}

func containsID[T any](items []T, id int64, idOf func(T) int64) bool {
	for _, item := range items {
		if idOf(item) == id {
			return true
		}
	}
	return false
}

func applyPostForm(post *data.Post, form PostForm) {
	post.Title = form.Title
	post.Text = form.Text
	post.PubDate = form.PubDate
	post.IsPublished = form.IsPublished
	post.CategoryID = form.CategoryID
	post.LocationID = form.LocationID
}

// CreatePost stores a new post authored by actor.
func (s *BlogService) CreatePost(ctx context.Context, actor policy.Actor, form PostForm) (*data.Post, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if err := s.validatePost(ctx, &form); err != nil {
		return nil, err
	}
	post := &data.Post{AuthorID: actor.ID}
	applyPostForm(post, form)
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// PostForEdit returns a post that actor is allowed to change. A refusal is
// a *policy.AuthorizationError.
func (s *BlogService) PostForEdit(ctx context.Context, actor policy.Actor, id int64) (*data.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModify(actor, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost applies form to a post owned by actor.
func (s *BlogService) UpdatePost(ctx context.Context, actor policy.Actor, id int64, form PostForm) (*data.Post, error) {
	post, err := s.PostForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validatePost(ctx, &form); err != nil {
		return nil, err
	}
	applyPostForm(post, form)
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post owned by actor, along with its comments.
func (s *BlogService) DeletePost(ctx context.Context, actor policy.Actor, id int64) error {
	if _, err := s.PostForEdit(ctx, actor, id); err != nil {
		return err
	}
	return s.posts.DeletePost(ctx, id, actor.ID)
}

// AddComment stores a comment by actor on an existing post.
func (s *BlogService) AddComment(ctx context.Context, actor policy.Actor, postID int64, form CommentForm) (*data.Comment, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	form.Text = strings.TrimSpace(form.Text)
	if err := validateForm(s.validate, &form); err != nil {
		return nil, err
	}
	comment := &data.Comment{Text: form.Text, PostID: post.ID, AuthorID: actor.ID}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CommentForEdit returns a comment of postID that actor may change.
// A comment addressed through another post is ErrNotFound.
func (s *BlogService) CommentForEdit(ctx context.Context, actor policy.Actor, postID, commentID int64) (*data.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, ErrNotFound
	}
	if err := policy.CanModify(actor, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment replaces the text of actor's comment.
func (s *BlogService) UpdateComment(ctx context.Context, actor policy.Actor, postID, commentID int64, form CommentForm) (*data.Comment, error) {
	comment, err := s.CommentForEdit(ctx, actor, postID, commentID)
	if err != nil {
		return nil, err
	}
	form.Text = strings.TrimSpace(form.Text)
	if err := validateForm(s.validate, &form); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateCommentText(ctx, comment.ID, actor.ID, form.Text); err != nil {
		return nil, err
	}
	comment.Text = form.Text
	return comment, nil
}

// DeleteComment removes actor's comment.
func (s *BlogService) DeleteComment(ctx context.Context, actor policy.Actor, postID, commentID int64) error {
	comment, err := s.CommentForEdit(ctx, actor, postID, commentID)
	if err != nil {
		return err
	}
	return s.comments.DeleteComment(ctx, comment.ID, actor.ID)
}

// sitemapLimit is the most URLs a single sitemap file may hold.
const sitemapLimit = 50000

// PublicPosts lists the posts anyone may read, newest first.
func (s *BlogService) PublicPosts(ctx context.Context) ([]*data.Post, error) {
	return s.posts.ListPosts(ctx, policy.ListFilter(policy.Anonymous, policy.IndexScope, s.now()), sitemapLimit, 0)
}

// IsNotFound reports whether err means the requested entity does not exist
// or is hidden from the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
