package product

import "context"

// Filter narrows product listings. Zero values mean "no constraint".
type Filter struct {
	NameContains string
	CategoryID   *int64
}

// Repository defines persistence behaviours for products.
//
// Create and Update report a missing category as category.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter Filter) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	DeleteByCategory(ctx context.Context, categoryID int64) (int64, error)
}
