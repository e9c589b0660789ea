package data

import (
	"html/template"
	"time"
)

// User is a registered author or commenter.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	OIDCSubject  *string   `db:"oidc_subject"` // "issuer#sub" of an external account
	DateJoined   time.Time `db:"date_joined"`
}

// FullName returns "First Last", or the username when both are empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Category groups posts under a slug.
type Category struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Slug        string    `db:"slug"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
}

// Location is the place a post is about.
type Location struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
}

// Post is a blog entry. The Author*, Category*, Location* and CommentCount
// fields are filled by joins on read and ignored on write.
type Post struct {
	ID          int64         `db:"id"`
	Title       string        `db:"title"`
	Text        string        `db:"text"`
	HTMLText    template.HTML `db:"-"`
	PubDate     time.Time     `db:"pub_date"`
	IsPublished bool          `db:"is_published"`
	CreatedAt   time.Time     `db:"created_at"`
	AuthorID    int64         `db:"author_id"`
	CategoryID  *int64        `db:"category_id"`
	LocationID  *int64        `db:"location_id"`

	AuthorUsername    string  `db:"author_username"`
	CategoryTitle     *string `db:"category_title"`
	CategorySlug      *string `db:"category_slug"`
	CategoryPublished *bool   `db:"category_is_published"`
	LocationName      *string `db:"location_name"`
	CommentCount      int     `db:"comment_count"`
}

// PubliclyVisible reports whether the post is published, dated at or before
// now and filed under a published category.
func (p *Post) PubliclyVisible(now time.Time) bool {
	return p.IsPublished &&
		!p.PubDate.After(now) &&
		p.CategoryPublished != nil && *p.CategoryPublished
}

// OwnerID returns the id of the post's author.
func (p *Post) OwnerID() int64 { return p.AuthorID }

// RedirectPostID returns the post to fall back to after a denied mutation.
func (p *Post) RedirectPostID() int64 { return p.ID }

// Comment is a reader's note on a post.
type Comment struct {
	ID        int64     `db:"id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
	PostID    int64     `db:"post_id"`
	AuthorID  int64     `db:"author_id"`

	AuthorUsername string `db:"author_username"`
}

// OwnerID returns the id of the comment's author.
func (c *Comment) OwnerID() int64 { return c.AuthorID }

// RedirectPostID returns the parent post.
func (c *Comment) RedirectPostID() int64 { return c.PostID }

// PostFilter describes which posts a listing returns. It is built fresh per
// request and never shared.
type PostFilter struct {
	// PublishedAsOf applies the public-visibility invariant at the given
	// instant when non-nil.
	PublishedAsOf  *time.Time
	AuthorUsername string
	CategorySlug   string
}
