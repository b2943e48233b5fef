package auth_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "storefront/backend/internal/domain/auth"
	"storefront/backend/internal/domain/storage"
	"storefront/backend/internal/infrastructure/memory"
	"storefront/backend/internal/infrastructure/password"
	"storefront/backend/internal/infrastructure/token"
	usecase "storefront/backend/internal/usecase/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc    *usecase.Service
	users  *memory.UserRepository
	tokens *token.JWTManager
	hasher *countingHasher
}

// countingHasher records how the service drives the hasher.
type countingHasher struct {
	*password.BcryptHasher
	verifies atomic.Int32
	dummies  atomic.Int32
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.verifies.Add(1)
	return h.BcryptHasher.Verify(plaintext, hash)
}

func (h *countingHasher) VerifyDummy(plaintext string) {
	h.dummies.Add(1)
	h.BcryptHasher.VerifyDummy(plaintext)
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := memory.New().Users()
	tokens, err := token.NewJWTManager("test-secret", time.Hour, "storefront")
	require.NoError(t, err)
	hasher := &countingHasher{BcryptHasher: password.NewBcryptHasher(bcrypt.MinCost)}
	return fixture{
		svc:    usecase.NewService(users, hasher, tokens),
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, usecase.RegisterInput{Email: "  A@X.com ", Password: "password123", Name: " Ann "})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash)
	assert.NotZero(t, user.ID)

	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.True(t, f.hasher.BcryptHasher.Verify("password123", stored.PasswordHash))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	cases := []usecase.RegisterInput{
		{Email: "", Password: "password123"},
		{Email: "not-an-email", Password: "password123"},
		{Email: "Bob <bob@x.com>", Password: "password123"},
		{Email: "a@x", Password: "password123"},
		{Email: "a@-x-.com", Password: "password123"},
		{Email: "a@[127.0.0.1]", Password: "password123"},
		{Email: "a@x..com", Password: "password123"},
		{Email: "a@x.com", Password: "short"},
		{Email: "a@x.com", Password: strings.Repeat("p", 256)},
	}
	for _, in := range cases {
		t.Run(fmt.Sprintf("%q/%d", in.Email, len(in.Password)), func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegisterBoundaryLengths(t *testing.T) {
	f := newFixture(t)
	for i, pw := range []string{strings.Repeat("p", 8), strings.Repeat("é", 255)} {
		_, err := f.svc.Register(context.Background(), usecase.RegisterInput{
			Email:    fmt.Sprintf("edge%d@x.com", i),
			Password: pw,
		})
		require.NoError(t, err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, usecase.RegisterInput{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, usecase.RegisterInput{Email: "A@x.com", Password: "password456"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 16
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(ctx, usecase.RegisterInput{Email: "race@x.com", Password: "password123"})
			if err == nil {
				ok.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrEmailExists)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, usecase.RegisterInput{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	tok, user, err := f.svc.Login(ctx, domain.Credentials{Email: "A@X.COM", Password: "password123"})
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	claims, err := f.tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, usecase.RegisterInput{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	cases := map[string]domain.Credentials{
		"wrong password":  {Email: "a@x.com", Password: "password999"},
		"unknown email":   {Email: "nobody@x.com", Password: "password123"},
		"malformed email": {Email: "nope", Password: "password123"},
		"short password":  {Email: "a@x.com", Password: "x"},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			tok, user, err := f.svc.Login(ctx, creds)
			assert.Empty(t, tok)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
			assert.Equal(t, domain.ErrInvalidCredentials.Error(), err.Error())
		})
	}
}

func TestLoginUnknownEmailRunsDummyCompare(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Login(context.Background(), domain.Credentials{Email: "ghost@x.com", Password: "password123"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, int32(1), f.hasher.dummies.Load())
	assert.Equal(t, int32(0), f.hasher.verifies.Load(), "no real compare without a user")
}

func TestVerifyToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, usecase.RegisterInput{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)
	tok, _, err := f.svc.Login(ctx, domain.Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	user, err := f.svc.VerifyToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, err = f.svc.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	require.NoError(t, f.users.Delete(ctx, registered.ID))
	_, err = f.svc.VerifyToken(ctx, tok)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid, "tokens for deleted users must be rejected")
}

// unavailableUsers fails every read the way a dropped connection would.
type unavailableUsers struct {
	domain.UserRepository
}

func (unavailableUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, fmt.Errorf("%w: connection refused", storage.ErrUnavailable)
}

func (unavailableUsers) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, fmt.Errorf("%w: connection refused", storage.ErrUnavailable)
}

func TestStoreFailuresAreNotCredentialErrors(t *testing.T) {
	f := newFixture(t)
	svc := usecase.NewService(unavailableUsers{}, f.hasher, f.tokens)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, domain.Credentials{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.False(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, err = svc.Register(ctx, usecase.RegisterInput{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	tok, err := f.tokens.Issue(usecase.Claims{UserID: 1, Role: domain.RoleUser})
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, tok)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestNormalizeEmailAcceptsHostnames(t *testing.T) {
	for _, raw := range []string{"a@x.com", "Ops@Mail-1.Example.co.uk", "b@1x.io"} {
		email, err := usecase.NormalizeEmail(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, strings.ToLower(raw), email)
	}
}
