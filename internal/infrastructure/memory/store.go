// Package memory provides process-local repositories for development runs
// and tests. All repositories built from one Store share a single lock, so
// uniqueness and foreign-key rules hold the same way they do in Postgres.
package memory

import (
	"sync"

	authdomain "storefront/backend/internal/domain/auth"
	categorydomain "storefront/backend/internal/domain/category"
	productdomain "storefront/backend/internal/domain/product"
)

// Store holds every table in memory.
type Store struct {
	mu sync.RWMutex

	users       map[int64]*authdomain.User
	usersByMail map[string]int64
	nextUserID  int64

	categories     map[int64]*categorydomain.Category
	nextCategoryID int64

	products      map[int64]*productdomain.Product
	nextProductID int64
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		users:       make(map[int64]*authdomain.User),
		usersByMail: make(map[string]int64),
		categories:  make(map[int64]*categorydomain.Category),
		products:    make(map[int64]*productdomain.Product),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Categories returns the category repository view of the store.
func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{s: s}
}

// Products returns the product repository view of the store.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{s: s}
}
