package memory

import (
	"context"
	"sort"
	"strings"

	domain "storefront/backend/internal/domain/category"
)

// CategoryRepository keeps categories in memory.
type CategoryRepository struct {
	s *Store
}

var _ domain.Repository = (*CategoryRepository)(nil)

// Create inserts a new category and assigns its id.
func (r *CategoryRepository) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(category.Name, 0) {
		return domain.ErrNameExists
	}
	r.s.nextCategoryID++
	category.ID = r.s.nextCategoryID
	stored := *category
	r.s.categories[category.ID] = &stored
	return nil
}

// GetByID fetches a category by id.
func (r *CategoryRepository) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *stored
	return &c, nil
}

// List returns all categories sorted by name.
func (r *CategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, stored := range r.s.categories {
		c := *stored
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update writes category changes.
func (r *CategoryRepository) Update(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.categories[category.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.nameTaken(category.Name, category.ID) {
		return domain.ErrNameExists
	}
	stored.Name = category.Name
	stored.UpdatedAt = category.UpdatedAt
	return nil
}

// Delete removes a category and detaches its products.
func (r *CategoryRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.categories, id)
	for _, p := range r.s.products {
		if p.InCategory(id) {
			p.CategoryID = nil
		}
	}
	return nil
}

// nameTaken must be called with the lock held.
func (r *CategoryRepository) nameTaken(name string, except int64) bool {
	for id, c := range r.s.categories {
		if id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
