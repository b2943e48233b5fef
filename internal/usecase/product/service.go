package product

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	categorydomain "storefront/backend/internal/domain/category"
	domain "storefront/backend/internal/domain/product"
)

// Service encapsulates product use cases.
type Service struct {
	repo       domain.Repository
	categories categorydomain.Repository
	nowFunc    func() time.Time
}

// NewService constructs a product service.
func NewService(repo domain.Repository, categories categorydomain.Repository) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		nowFunc:    time.Now,
	}
}

// CreateInput contains the payload required for product creation.
type CreateInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  *int64  `json:"categoryId"`
}

// UpdateInput encapsulates partial product updates.
type UpdateInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// ListInput narrows product listings.
type ListInput struct {
	Name string
}

// Create stores a new product after validation.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	product := &domain.Product{
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// CreateInCategory files a new product under an existing category.
func (s *Service) CreateInCategory(ctx context.Context, categoryID int64, input CreateInput) (*domain.Product, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	input.CategoryID = &categoryID
	return s.Create(ctx, input)
}

// List retrieves products, optionally filtered by a name substring.
func (s *Service) List(ctx context.Context, input ListInput) ([]*domain.Product, error) {
	return s.repo.List(ctx, domain.Filter{NameContains: strings.TrimSpace(input.Name)})
}

// ListByCategory retrieves the products filed under a category.
func (s *Service) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, domain.Filter{CategoryID: &categoryID})
}

// Get fetches a product by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies partial updates to a product.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		input.Name = &name
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}

	product.Update(input.Name, input.Description, input.Price, s.nowFunc().UTC())

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// DeleteByCategory removes every product filed under the category.
func (s *Service) DeleteByCategory(ctx context.Context, categoryID int64) (int64, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return 0, err
	}
	return s.repo.DeleteByCategory(ctx, categoryID)
}

// DeleteFromCategory removes a product only if it belongs to the category.
func (s *Service) DeleteFromCategory(ctx context.Context, categoryID, productID int64) error {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.InCategory(categoryID) {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, productID)
}

func validatePrice(price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: price must be a non-negative number", domain.ErrValidation)
	}
	return nil
}
