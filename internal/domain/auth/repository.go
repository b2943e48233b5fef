package auth

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for auth users.
//
// Implementations must enforce email uniqueness atomically and report a
// violation as ErrEmailExists, report missing rows as ErrUserNotFound and
// wrap anything else in storage.ErrUnavailable.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Update(ctx context.Context, id int64, changes UserChanges) (*User, error)
	UpdateRole(ctx context.Context, id int64, role Role, updatedAt time.Time) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// UserFilter allows narrowing user queries.
type UserFilter struct {
	Role Role
}

// UserChanges is a partial profile update applied in a single write. Nil
// fields keep their stored value. The role is never part of it; see
// UpdateRole.
type UserChanges struct {
	Email        *string
	Name         *string
	PasswordHash *string
	UpdatedAt    time.Time
}
