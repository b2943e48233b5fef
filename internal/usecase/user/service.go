package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "storefront/backend/internal/domain/auth"
	authusecase "storefront/backend/internal/usecase/auth"
)

// Service provides user management use cases for administrative workflows.
type Service struct {
	repo    domain.UserRepository
	hasher  authusecase.PasswordHasher
	nowFunc func() time.Time
}

// NewService constructs a user service around the provided repository.
func NewService(repo domain.UserRepository, hasher authusecase.PasswordHasher) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		nowFunc: time.Now,
	}
}

// Filter captures supported filters for listing users.
type Filter struct {
	Role string
}

// CreateInput defines the payload to create a new user.
type CreateInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateInput defines the payload to update a user. Nil fields are left alone.
type UpdateInput struct {
	Email    *string
	Name     *string
	Password *string
}

// List returns users matching the supplied filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*domain.User, error) {
	domainFilter := domain.UserFilter{}
	if strings.TrimSpace(filter.Role) != "" {
		role, err := domain.ParseRole(filter.Role)
		if err != nil {
			return nil, err
		}
		domainFilter.Role = role
	}

	users, err := s.repo.List(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// Create persists a new USER account on behalf of an administrator.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	email, err := authusecase.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := authusecase.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
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

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user.Sanitized(), nil
}

// Update modifies the persisted user. Every field is validated before the
// password is hashed, and the changes land in one repository write.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*domain.User, error) {
	changes := domain.UserChanges{}
	if input.Email != nil {
		email, err := authusecase.NormalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		changes.Email = &email
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		changes.Name = &name
	}
	if input.Password != nil {
		if err := authusecase.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changes.PasswordHash = &hashed
	}
	changes.UpdatedAt = s.nowFunc().UTC()

	user, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// Promote grants the ADMIN role.
func (s *Service) Promote(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.UpdateRole(ctx, id, domain.RoleAdmin, s.nowFunc().UTC())
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// PromoteByEmail grants the ADMIN role to the account registered under email.
func (s *Service) PromoteByEmail(ctx context.Context, email string) (*domain.User, error) {
	normalized, err := authusecase.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return s.Promote(ctx, user.ID)
}

// Delete removes the target user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func sanitizeUsers(items []*domain.User) []*domain.User {
	out := make([]*domain.User, 0, len(items))
	for _, item := range items {
		out = append(out, item.Sanitized())
	}
	return out
}
