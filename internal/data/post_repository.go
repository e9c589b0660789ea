package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const postSelect = `SELECT
	p.id, p.title, p.text, p.pub_date, p.is_published, p.created_at,
	p.author_id, p.category_id, p.location_id,
	u.username AS author_username,
	c.title AS category_title, c.slug AS category_slug, c.is_published AS category_is_published,
	l.name AS location_name,
	(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN locations l ON l.id = p.location_id`

// PostRepository handles database operations for posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// dbTime normalizes timestamps so that SQLite's textual comparison agrees
// with chronological order.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func (f PostFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.PublishedAsOf != nil {
		clauses = append(clauses, "p.pub_date <= ?", "p.is_published = ?", "c.is_published = ?")
		args = append(args, dbTime(*f.PublishedAsOf), true, true)
	}
	if f.AuthorUsername != "" {
		clauses = append(clauses, "u.username = ?")
		args = append(args, f.AuthorUsername)
	}
	if f.CategorySlug != "" {
		clauses = append(clauses, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListPosts returns one page of the posts matching f, newest pub_date first.
func (r *PostRepository) ListPosts(ctx context.Context, f PostFilter, limit, offset int) ([]*Post, error) {
	where, args := f.where()
	query := postSelect + where + " ORDER BY p.pub_date DESC, p.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	posts := []*Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns how many posts match f.
func (r *PostRepository) CountPosts(ctx context.Context, f PostFilter) (int, error) {
	where, args := f.where()
	query := `SELECT COUNT(*) FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id` + where

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// GetPostByID retrieves a single post with its joined fields.
func (r *PostRepository) GetPostByID(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := r.db.GetContext(ctx, &post, postSelect+" WHERE p.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return &post, nil
}

// CreatePost inserts a new post and sets its ID.
func (r *PostRepository) CreatePost(ctx context.Context, post *Post) error {
	post.PubDate = dbTime(post.PubDate)
	post.CreatedAt = dbTime(time.Now())
	query := `INSERT INTO posts (title, text, pub_date, is_published, created_at, author_id, category_id, location_id)
VALUES (:title, :text, :pub_date, :is_published, :created_at, :author_id, :category_id, :location_id)`
	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to execute create post query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get post id: %w", err)
	}
	post.ID = id
	return nil
}

// UpdatePost overwrites the editable fields of a post. The row must still
// belong to post.AuthorID, otherwise ErrNotFound is returned.
func (r *PostRepository) UpdatePost(ctx context.Context, post *Post) error {
	post.PubDate = dbTime(post.PubDate)
	query := `UPDATE posts SET title = :title, text = :text, pub_date = :pub_date, is_published = :is_published,
category_id = :category_id, location_id = :location_id
WHERE id = :id AND author_id = :author_id`
	result, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return expectRow(result, "post", post.ID)
}

// DeletePost removes a post owned by authorID. Its comments go with it.
func (r *PostRepository) DeletePost(ctx context.Context, id, authorID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectRow(result, "post", id)
}

func expectRow(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}
