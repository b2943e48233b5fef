package memory

import (
	"context"
	"sort"
	"time"

	domain "storefront/backend/internal/domain/auth"
)

// UserRepository keeps users in memory.
type UserRepository struct {
	s *Store
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create inserts a new user and assigns its id.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.usersByMail[user.Email]; taken {
		return domain.ErrEmailExists
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	stored := *user
	r.s.users[user.ID] = &stored
	r.s.usersByMail[user.Email] = user.ID
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByMail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *r.s.users[id]
	return &u, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

// List returns users newest first, optionally narrowed by role.
func (r *UserRepository) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, stored := range r.s.users {
		if filter.Role != "" && stored.Role != filter.Role {
			continue
		}
		u := *stored
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

// Update applies the non-nil changes and returns the stored record.
func (r *UserRepository) Update(_ context.Context, id int64, changes domain.UserChanges) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if changes.Email != nil {
		if owner, taken := r.s.usersByMail[*changes.Email]; taken && owner != id {
			return nil, domain.ErrEmailExists
		}
		delete(r.s.usersByMail, stored.Email)
		stored.Email = *changes.Email
		r.s.usersByMail[stored.Email] = id
	}
	if changes.Name != nil {
		stored.Name = *changes.Name
	}
	if changes.PasswordHash != nil {
		stored.PasswordHash = *changes.PasswordHash
	}
	stored.UpdatedAt = changes.UpdatedAt
	u := *stored
	return &u, nil
}

// UpdateRole changes a user's role and returns the updated record.
func (r *UserRepository) UpdateRole(_ context.Context, id int64, role domain.Role, updatedAt time.Time) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	stored.Role = role
	stored.UpdatedAt = updatedAt
	u := *stored
	return &u, nil
}

// Delete removes a user by id.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.usersByMail, stored.Email)
	delete(r.s.users, id)
	return nil
}
