package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const commentSelect = `SELECT cm.id, cm.text, cm.created_at, cm.post_id, cm.author_id, u.username AS author_username
FROM comments cm
JOIN users u ON u.id = cm.author_id`

// CommentRepository handles database operations for comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// CreateComment inserts a comment and sets its ID.
func (r *CommentRepository) CreateComment(ctx context.Context, comment *Comment) error {
	comment.CreatedAt = dbTime(time.Now())
	query := `INSERT INTO comments (text, created_at, post_id, author_id) VALUES (:text, :created_at, :post_id, :author_id)`
	res, err := r.db.NamedExecContext(ctx, query, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// GetCommentByID retrieves a comment with its author's username.
func (r *CommentRepository) GetCommentByID(ctx context.Context, id int64) (*Comment, error) {
	var comment Comment
	if err := r.db.GetContext(ctx, &comment, commentSelect+" WHERE cm.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comment by id: %w", err)
	}
	return &comment, nil
}

// ListCommentsByPost returns a post's comments, oldest first.
func (r *CommentRepository) ListCommentsByPost(ctx context.Context, postID int64) ([]*Comment, error) {
	comments := []*Comment{}
	query := commentSelect + " WHERE cm.post_id = ? ORDER BY cm.created_at, cm.id"
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// UpdateCommentText changes the text of a comment owned by authorID.
// The parent post is never touched.
func (r *CommentRepository) UpdateCommentText(ctx context.Context, id, authorID int64, text string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE comments SET text = ? WHERE id = ? AND author_id = ?`, text, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return expectRow(result, "comment", id)
}

// DeleteComment removes a comment owned by authorID.
func (r *CommentRepository) DeleteComment(ctx context.Context, id, authorID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectRow(result, "comment", id)
}
