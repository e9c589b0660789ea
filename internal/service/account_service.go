package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/data"
	"github.com/blogicum/blogicum/internal/policy"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AccountServicer covers registration, login and profile editing.
type AccountServicer interface {
	Register(ctx context.Context, form RegisterForm) (*data.User, error)
	Authenticate(ctx context.Context, username, password string) (*data.User, error)
	EnsureExternalUser(ctx context.Context, id ExternalIdentity) (*data.User, error)
	CurrentUser(ctx context.Context, actor policy.Actor) (*data.User, error)
	UpdateProfile(ctx context.Context, actor policy.Actor, form ProfileForm) (*data.User, error)
}

// AccountService implements AccountServicer on a UserRepository.
type AccountService struct {
	users    UserRepository
	validate *validator.Validate
}

var _ AccountServicer = (*AccountService)(nil)

// NewAccountService creates a new AccountService.
func NewAccountService(users UserRepository) *AccountService {
	return &AccountService{users: users, validate: newValidator()}
}

// Register creates a local account with a bcrypt password hash.
func (s *AccountService) Register(ctx context.Context, form RegisterForm) (*data.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	if err := validateForm(s.validate, &form); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByUsername(ctx, form.Username); err == nil {
		return nil, fieldError("username", "A user with that username already exists.")
	} else if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return nil, err
	}
	user := &data.User{Username: form.Username, Email: form.Email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

var nonSlug = regexp.MustCompile(`[^-a-zA-Z0-9_]+`)

// ExternalIdentity is a user asserted by the OIDC provider. Issuer and
// Subject identify the account; the rest only seeds a new profile.
type ExternalIdentity struct {
	Issuer    string
	Subject   string
	Username  string
	Email     string
	FirstName string
	LastName  string
}

func (id ExternalIdentity) key() string {
	return id.Issuer + "#" + id.Subject
}

// maxUsernameSuffix bounds the numbered alternatives tried for a taken
// username before falling back to a random one.
const maxUsernameSuffix = 20

// EnsureExternalUser returns the account linked to id, creating a
// password-less one on first login. An existing account is only ever found
// through the provider subject, never through a matching username.
func (s *AccountService) EnsureExternalUser(ctx context.Context, id ExternalIdentity) (*data.User, error) {
	if id.Issuer == "" || id.Subject == "" {
		return nil, errors.New("identity provider returned no subject")
	}
	key := id.key()
	user, err := s.users.GetUserByOIDCSubject(ctx, key)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}

	username, err := s.freeUsername(ctx, id)
	if err != nil {
		return nil, err
	}
	user = &data.User{
		Username:    username,
		Email:       id.Email,
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		OIDCSubject: &key,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// freeUsername derives an unused username from the identity.
func (s *AccountService) freeUsername(ctx context.Context, id ExternalIdentity) (string, error) {
	base := nonSlug.ReplaceAllString(id.Username, "_")
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}
	candidate := base
	for n := 2; n <= maxUsernameSuffix+1; n++ {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, data.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
	return base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8], nil
}

// CurrentUser loads the actor's own user row.
func (s *AccountService) CurrentUser(ctx context.Context, actor policy.Actor) (*data.User, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.users.GetUserByID(ctx, actor.ID)
}

// UpdateProfile changes the actor's own name and email. There is no way to
// name another user here.
func (s *AccountService) UpdateProfile(ctx context.Context, actor policy.Actor, form ProfileForm) (*data.User, error) {
	user, err := s.CurrentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.TrimSpace(form.Email)
	if err := validateForm(s.validate, &form); err != nil {
		return nil, err
	}
	user.FirstName = form.FirstName
	user.LastName = form.LastName
	user.Email = form.Email
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
