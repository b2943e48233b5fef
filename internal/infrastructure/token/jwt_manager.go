package token

import (
	"errors"
	"fmt"
	"time"

	domain "storefront/backend/internal/domain/auth"
	usecase "storefront/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned when a manager is built without a signing key.
var ErrEmptySecret = errors.New("jwt secret must not be empty")

// JWTManager issues and validates HS256 session tokens.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	nowFunc    func() time.Time
}

// NewJWTManager constructs a manager. A non-positive expiration issues tokens
// without an exp claim.
func NewJWTManager(secret string, expiration time.Duration, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		nowFunc:    time.Now,
	}, nil
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates a signed JWT containing the user id and role.
func (m *JWTManager) Issue(c usecase.Claims) (string, error) {
	now := m.nowFunc().UTC()
	claims := Claims{
		UserID: c.UserID,
		Role:   string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.expiration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates the token returning its claims when valid.
func (m *JWTManager) Verify(tokenString string) (usecase.Claims, error) {
	if tokenString == "" {
		return usecase.Claims{}, domain.ErrTokenInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return usecase.Claims{}, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return usecase.Claims{}, domain.ErrTokenInvalid
	}
	return usecase.Claims{UserID: claims.UserID, Role: domain.Role(claims.Role)}, nil
}
