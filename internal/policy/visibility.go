// Package policy decides which posts a viewer may see and which mutations
// an actor may perform. Everything here is pure: callers pass the clock and
// identities in, and get a decision or a filter back.
package policy

import (
	"time"

	"github.com/blogicum/blogicum/internal/data"
)

// Actor identifies who is making a request. The zero value is anonymous.
type Actor struct {
	ID       int64
	Username string
}

// Anonymous is the actor of an unauthenticated request.
var Anonymous = Actor{}

// Authenticated reports whether the actor is a logged-in user.
func (a Actor) Authenticated() bool {
	return a.ID != 0
}

// Scope names the listing a viewer is looking at.
type Scope struct {
	ProfileUsername string
	CategorySlug    string
}

// IndexScope is the site-wide post list.
var IndexScope = Scope{}

// ProfileScope lists the posts of one author.
func ProfileScope(username string) Scope { return Scope{ProfileUsername: username} }

// CategoryScope lists the posts filed under one category.
func CategoryScope(slug string) Scope { return Scope{CategorySlug: slug} }

// ListFilter builds the post filter for viewer looking at scope at instant
// now. Authors looking at their own profile see all of their posts; every
// other listing applies the public-visibility rule.
func ListFilter(viewer Actor, scope Scope, now time.Time) data.PostFilter {
	f := data.PostFilter{
		AuthorUsername: scope.ProfileUsername,
		CategorySlug:   scope.CategorySlug,
	}
	ownProfile := viewer.Authenticated() &&
		scope.ProfileUsername != "" &&
		scope.ProfileUsername == viewer.Username
	if !ownProfile {
		f.PublishedAsOf = &now
	}
	return f
}

// PostVisibleTo reports whether viewer may read post at instant now.
func PostVisibleTo(viewer Actor, post *data.Post, now time.Time) bool {
	if viewer.Authenticated() && post.AuthorID == viewer.ID {
		return true
	}
	return post.PubliclyVisible(now)
}
