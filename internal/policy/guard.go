package policy

import "fmt"

// Owned is anything with an author and a post to fall back to when a
// change is refused.
type Owned interface {
	OwnerID() int64
	RedirectPostID() int64
}

// AuthorizationError is returned when an actor may not modify an entity.
// Routes decide how to surface it.
type AuthorizationError struct {
	ActorID int64
	OwnerID int64
	// PostID is the post whose detail page is a safe place to send the actor.
	PostID int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %d may not modify entity owned by %d", e.ActorID, e.OwnerID)
}

// CanModify returns nil when actor authored entity.
func CanModify[T Owned](actor Actor, entity T) error {
	if actor.Authenticated() && entity.OwnerID() == actor.ID {
		return nil
	}
	return &AuthorizationError{
		ActorID: actor.ID,
		OwnerID: entity.OwnerID(),
		PostID:  entity.RedirectPostID(),
	}
}
