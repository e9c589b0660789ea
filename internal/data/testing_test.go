//go:build integration

package data

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

// setupTestDB creates a migrated in-memory SQLite database.
// It returns the database and a teardown function to be deferred.
func setupTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	// A non-shared in-memory database for complete test isolation.
	db, err := NewDB("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}
	if err := ApplyMigrations(db, "sqlite3", ""); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return db, func() { db.Close() }
}

type fixture struct {
	users      *UserRepository
	categories *CategoryRepository
	locations  *LocationRepository
	posts      *PostRepository
	comments   *CommentRepository
}

func newFixture(db *sqlx.DB) *fixture {
	return &fixture{
		users:      NewUserRepository(db),
		categories: NewCategoryRepository(db),
		locations:  NewLocationRepository(db),
		posts:      NewPostRepository(db),
		comments:   NewCommentRepository(db),
	}
}

func (f *fixture) user(t *testing.T, username string) *User {
	t.Helper()
	u := &User{Username: username}
	if err := f.users.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (f *fixture) category(t *testing.T, slug string, published bool) *Category {
	t.Helper()
	c := &Category{Title: slug, Slug: slug, IsPublished: published}
	if _, err := f.categories.Save(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func (f *fixture) post(t *testing.T, author *User, cat *Category, pubDate time.Time, published bool) *Post {
	t.Helper()
	p := &Post{Title: "post", Text: "text", PubDate: pubDate, IsPublished: published, AuthorID: author.ID}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	if err := f.posts.CreatePost(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}
