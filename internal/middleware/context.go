package middleware

import (
	"context"

	"github.com/blogicum/blogicum/internal/policy"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// Roles known to the authorization model.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
)

// UserInfo represents the essential user information stored in the session and request context.
type UserInfo struct {
	ID      int64
	Subject string
	Roles   []string
}

// Authenticated reports whether the request carries a logged-in user.
func (u *UserInfo) Authenticated() bool {
	return u.ID != 0
}

// Actor converts the request user into the identity used by policy checks.
func (u *UserInfo) Actor() policy.Actor {
	if !u.Authenticated() {
		return policy.Anonymous
	}
	return policy.Actor{ID: u.ID, Username: u.Subject}
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return &UserInfo{Subject: RoleAnonymous, Roles: []string{RoleAnonymous}}
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
