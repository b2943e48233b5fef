package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	usecase "storefront/backend/internal/usecase/auth"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor of the system this service replaces.
const DefaultCost = 10

// bcrypt ignores everything past this many bytes.
const maxBcryptInput = 72

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

var _ usecase.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher constructs a hasher. Out-of-range costs fall back to DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of the plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prepare(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(plaintext)) == nil
}

// VerifyDummy burns one comparison at the configured cost so that a lookup
// miss takes as long as a password mismatch.
func (h *BcryptHasher) VerifyDummy(plaintext string) {
	h.dummyOnce.Do(func() {
		seed := make([]byte, 32)
		_, _ = rand.Read(seed)
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(base64.StdEncoding.EncodeToString(seed)), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, prepare(plaintext))
}

// prepare keeps short inputs untouched so existing bcrypt hashes stay valid,
// and folds longer ones into a fixed-size digest so no byte is ignored.
func prepare(plaintext string) []byte {
	if len(plaintext) <= maxBcryptInput {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
