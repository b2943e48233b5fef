package memory

import (
	"context"
	"sort"
	"strings"

	categorydomain "storefront/backend/internal/domain/category"
	domain "storefront/backend/internal/domain/product"
)

// ProductRepository keeps products in memory.
type ProductRepository struct {
	s *Store
}

var _ domain.Repository = (*ProductRepository)(nil)

// Create inserts a new product and assigns its id.
func (r *ProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.categoryExists(product.CategoryID) {
		return categorydomain.ErrNotFound
	}
	r.s.nextProductID++
	product.ID = r.s.nextProductID
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

// GetByID fetches a product by id.
func (r *ProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(stored), nil
}

// List returns products sorted by name.
func (r *ProductRepository) List(_ context.Context, filter domain.Filter) ([]*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(filter.NameContains)
	out := make([]*domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if filter.CategoryID != nil && !p.InCategory(*filter.CategoryID) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Update writes product updates.
func (r *ProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return domain.ErrNotFound
	}
	if !r.categoryExists(product.CategoryID) {
		return categorydomain.ErrNotFound
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

// DeleteByCategory removes every product in the category and reports how many went.
func (r *ProductRepository) DeleteByCategory(_ context.Context, categoryID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, p := range r.s.products {
		if p.InCategory(categoryID) {
			delete(r.s.products, id)
			n++
		}
	}
	return n, nil
}

// categoryExists must be called with the lock held.
func (r *ProductRepository) categoryExists(id *int64) bool {
	if id == nil {
		return true
	}
	_, ok := r.s.categories[*id]
	return ok
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	if p.CategoryID != nil {
		id := *p.CategoryID
		c.CategoryID = &id
	}
	return &c
}
