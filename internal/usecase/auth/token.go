package auth

import domain "storefront/backend/internal/domain/auth"

// Claims is the identity payload carried by a session token.
type Claims struct {
	UserID int64
	Role   domain.Role
}

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Issue(claims Claims) (string, error)
	// Verify returns domain.ErrTokenInvalid for every rejected token.
	Verify(token string) (Claims, error)
}

// PasswordHasher abstracts one-way credential hashing.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	VerifyDummy(plaintext string)
}
