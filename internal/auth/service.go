package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DiplomWorkHushchin/Server/internal/directory"
)

// Service composes the token issuer, principal validator, session store and
// credential directory into the login, registration, logout and refresh
// flows.
type Service struct {
	directory directory.Directory
	sessions  SessionStore
	issuer    *Issuer
	validator *Validator
	resolver  directory.IdentityResolver
	now       func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIdentityResolver enables external (Google) identity login.
func WithIdentityResolver(r directory.IdentityResolver) ServiceOption {
	return func(s *Service) {
		s.resolver = r
	}
}

// NewService wires the auth flows together.
func NewService(dir directory.Directory, sessions SessionStore, issuer *Issuer, validator *Validator, opts ...ServiceOption) (*Service, error) {
	if dir == nil || sessions == nil || issuer == nil || validator == nil {
		return nil, errors.New("auth: directory, session store, issuer and validator are required")
	}
	s := &Service{
		directory: dir,
		sessions:  sessions,
		issuer:    issuer,
		validator: validator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	GroupName  string
	Username   string
	FirstName  string
	LastName   string
	FatherName string
	Password   string
	Role       string
	Email      string
}

// Login validates the email/password pair against the directory and issues
// a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: invalid email", ErrUnauthorized)
	}
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email", ErrUnauthorized)
		}
		return nil, err
	}
	if err := directory.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: check your login data", ErrUnauthorized)
	}
	return s.issue(ctx, user)
}

// Register creates the user through the directory and issues a token pair.
// A username colliding case-insensitively with an existing user fails before
// any persistence write happens.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if !directory.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if _, err := s.directory.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: user with name already exists", ErrAlreadyExists)
	} else if !errors.Is(err, directory.ErrNotFound) {
		return nil, err
	}

	var groupID string
	if name := strings.TrimSpace(in.GroupName); name != "" {
		group, err := s.directory.EnsureGroup(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve group: %w", err)
		}
		groupID = group.ID
	}

	hash, err := directory.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &directory.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		FatherName:   strings.TrimSpace(in.FatherName),
		GroupID:      groupID,
	}
	if err := s.directory.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.directory.AssignRole(ctx, user.ID, role); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	return s.issue(ctx, user)
}

// Refresh recovers identity from an expired access token, confirms the
// presented refresh credential matches the live one, and rotates the pair.
// Requiring both artifacts to agree defeats theft of either alone.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshValue string) (*Session, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshValue) == "" {
		return nil, fmt.Errorf("%w: tokens missing", ErrUnauthorized)
	}

	principal := s.validator.ValidateLenient(accessToken)
	if principal == nil {
		return nil, fmt.Errorf("%w: invalid principal", ErrUnauthorized)
	}

	user, err := s.directory.FindByUsername(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, err
	}

	live, err := s.sessions.FindLiveByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
		}
		return nil, err
	}
	if !live.Live(s.now().UTC()) ||
		subtle.ConstantTimeCompare([]byte(live.Value), []byte(refreshValue)) != 1 {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	// Atomic consume arbitrates concurrent refreshes for the same user:
	// exactly one caller removes the credential and proceeds to rotate.
	ok, err := s.sessions.Consume(ctx, user.ID, refreshValue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	return s.issue(ctx, user)
}

// Logout deletes the caller's live refresh credential. An unknown value is
// a no-op.
func (s *Service) Logout(ctx context.Context, refreshValue string) error {
	if strings.TrimSpace(refreshValue) == "" {
		return nil
	}
	rec, err := s.sessions.FindByValue(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sessions.Delete(ctx, rec.ID)
}

// LoginWithGoogle resolves an external identity to a local user and issues
// a token pair. The exchange details live in the resolver.
func (s *Service) LoginWithGoogle(ctx context.Context, externalToken string) (*Session, error) {
	if s.resolver == nil {
		return nil, ErrNotImplemented
	}
	email, err := s.resolver.ResolveEmail(ctx, externalToken)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve external identity", ErrUnauthorized)
	}
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *directory.User) (*Session, error) {
	access, refresh, err := s.issuer.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	roles, err := s.directory.Roles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: access,
		Refresh:     refresh,
		User:        user,
		Roles:       roles,
	}, nil
}
