package category

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a category could not be located.
	ErrNotFound = errors.New("category not found")
	// ErrNameExists signals a category name uniqueness breach.
	ErrNameExists = errors.New("category with this name already exists")
	// ErrValidation wraps malformed category input.
	ErrValidation = errors.New("invalid category")
)

// Category groups products.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository defines persistence behaviours for categories.
type Repository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id int64) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id int64) error
}
