//go:build unit

package service

import (
	"context"
	"fmt"

	"github.com/blogicum/blogicum/internal/data"
)

// mockPostRepository is a mock implementation of the PostRepository interface.
type mockPostRepository struct {
	errToReturn  error
	posts        map[int64]*data.Post
	total        int
	pagePosts    []*data.Post
	lastFilter   data.PostFilter
	lastLimit    int
	lastOffset   int
	lastPost     *data.Post
	updateCalled bool
	deleteCalled bool
}

var _ PostRepository = (*mockPostRepository)(nil)

func (m *mockPostRepository) ListPosts(ctx context.Context, f data.PostFilter, limit, offset int) ([]*data.Post, error) {
	m.lastFilter, m.lastLimit, m.lastOffset = f, limit, offset
	return m.pagePosts, m.errToReturn
}

func (m *mockPostRepository) CountPosts(ctx context.Context, f data.PostFilter) (int, error) {
	m.lastFilter = f
	return m.total, m.errToReturn
}

func (m *mockPostRepository) GetPostByID(ctx context.Context, id int64) (*data.Post, error) {
	if p, ok := m.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("post %d: %w", id, data.ErrNotFound)
}

func (m *mockPostRepository) CreatePost(ctx context.Context, post *data.Post) error {
	m.lastPost = post
	post.ID = 1
	return m.errToReturn
}

func (m *mockPostRepository) UpdatePost(ctx context.Context, post *data.Post) error {
	m.updateCalled = true
	m.lastPost = post
	return m.errToReturn
}

func (m *mockPostRepository) DeletePost(ctx context.Context, id, authorID int64) error {
	m.deleteCalled = true
	return m.errToReturn
}

// mockCommentRepository is a mock implementation of the CommentRepository interface.
type mockCommentRepository struct {
	comments    map[int64]*data.Comment
	created     *data.Comment
	updatedText string
	deleted     bool
}

var _ CommentRepository = (*mockCommentRepository)(nil)

func (m *mockCommentRepository) CreateComment(ctx context.Context, c *data.Comment) error {
	m.created = c
	c.ID = 99
	return nil
}

func (m *mockCommentRepository) GetCommentByID(ctx context.Context, id int64) (*data.Comment, error) {
	if c, ok := m.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fmt.Errorf("comment %d: %w", id, data.ErrNotFound)
}

func (m *mockCommentRepository) ListCommentsByPost(ctx context.Context, postID int64) ([]*data.Comment, error) {
	var out []*data.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCommentRepository) UpdateCommentText(ctx context.Context, id, authorID int64, text string) error {
	m.updatedText = text
	return nil
}

func (m *mockCommentRepository) DeleteComment(ctx context.Context, id, authorID int64) error {
	m.deleted = true
	return nil
}

// mockUserRepository is a mock implementation of the UserRepository interface.
type mockUserRepository struct {
	users       map[string]*data.User
	nextID      int64
	lastUpdated *data.User
}

var _ UserRepository = (*mockUserRepository)(nil)

func newMockUserRepository(users ...*data.User) *mockUserRepository {
	m := &mockUserRepository{users: map[string]*data.User{}, nextID: 100}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUserRepository) CreateUser(ctx context.Context, u *data.User) error {
	m.nextID++
	u.ID = m.nextID
	m.users[u.Username] = u
	return nil
}

func (m *mockUserRepository) GetUserByUsername(ctx context.Context, username string) (*data.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %q: %w", username, data.ErrNotFound)
}

func (m *mockUserRepository) GetUserByOIDCSubject(ctx context.Context, subject string) (*data.User, error) {
	for _, u := range m.users {
		if u.OIDCSubject != nil && *u.OIDCSubject == subject {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user with subject %q: %w", subject, data.ErrNotFound)
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id int64) (*data.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, data.ErrNotFound)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, u *data.User) error {
	m.lastUpdated = u
	return nil
}

// mockCategoryRepository is a mock implementation of the CategoryRepository interface.
type mockCategoryRepository struct {
	categories []*data.Category
}

var _ CategoryRepository = (*mockCategoryRepository)(nil)

func (m *mockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*data.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", slug, data.ErrNotFound)
}

func (m *mockCategoryRepository) GetAll(ctx context.Context) ([]*data.Category, error) {
	return m.categories, nil
}

// mockLocationRepository is a mock implementation of the LocationRepository interface.
type mockLocationRepository struct {
	locations []*data.Location
}

func (m *mockLocationRepository) GetAll(ctx context.Context) ([]*data.Location, error) {
	return m.locations, nil
}
