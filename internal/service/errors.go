package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blogicum/blogicum/internal/data"
)

var (
	// ErrNotFound covers missing entities and entities hidden from the viewer.
	ErrNotFound = data.ErrNotFound
	// ErrUnauthenticated is returned when an operation needs a logged-in actor.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned by a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports malformed form input, keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
