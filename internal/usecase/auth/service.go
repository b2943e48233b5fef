package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domain "storefront/backend/internal/domain/auth"
)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 8
	// MaxPasswordLength is the longest accepted password, in characters.
	MaxPasswordLength = 255
)

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  TokenManager
	nowFunc func() time.Time
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher PasswordHasher, tokens TokenManager) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		nowFunc: time.Now,
	}
}

// RegisterInput carries the self-service sign-up payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a new USER account and returns it without a password hash.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFunc().UTC()
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         domain.RoleUser,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store's uniqueness check wins over the pre-check above when two
	// registrations race.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user.Sanitized(), nil
}

// Login validates credentials and returns a token plus user.
//
// Every caller-side failure collapses into domain.ErrInvalidCredentials so the
// response never reveals whether the email is registered.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error) {
	email, err := NormalizeEmail(creds.Email)
	if err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := ValidatePassword(creds.Password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.VerifyDummy(creds.Password)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, user.Sanitized(), nil
}

// VerifyToken validates a bearer token and returns the associated user as it
// currently exists in the store.
func (s *Service) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	return user.Sanitized(), nil
}

// NormalizeEmail trims and lower-cases an address after checking its syntax.
// Display-name forms such as "Bob <bob@x.com>" are rejected, and the domain
// must be a dotted hostname.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%w: email must be a valid address", domain.ErrValidation)
	}
	if !validDomain(email[strings.LastIndexByte(email, '@')+1:]) {
		return "", fmt.Errorf("%w: email must be a valid address", domain.ErrValidation)
	}
	return email, nil
}

// validDomain reports whether host is at least two dot-separated labels of
// letters, digits and inner hyphens. IP literals fail.
func validDomain(host string) bool {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
				return false
			}
		}
	}
	return true
}

// ValidatePassword enforces the accepted password length range.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("%w: password must be between %d and %d characters", domain.ErrValidation, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}
