package category

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "storefront/backend/internal/domain/category"
)

// Service encapsulates category use cases.
type Service struct {
	repo    domain.Repository
	nowFunc func() time.Time
}

// NewService constructs a category service.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

// Input is the create/update payload.
type Input struct {
	Name string `json:"name"`
}

// Create stores a new category.
func (s *Service) Create(ctx context.Context, input Input) (*domain.Category, error) {
	name, err := validName(input.Name)
	if err != nil {
		return nil, err
	}
	now := s.nowFunc().UTC()
	c := &domain.Category{Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves all categories.
func (s *Service) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx)
}

// Get fetches a category by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Update renames a category.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*domain.Category, error) {
	name, err := validName(input.Name)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.UpdatedAt = s.nowFunc().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category. Its products stay, uncategorised.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return name, nil
}
