package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/backend/internal/config"
	authdomain "storefront/backend/internal/domain/auth"
	"storefront/backend/internal/domain/storage"
	"storefront/backend/internal/infrastructure/memory"
	"storefront/backend/internal/infrastructure/password"
	"storefront/backend/internal/infrastructure/token"
	authusecase "storefront/backend/internal/usecase/auth"
	categoryusecase "storefront/backend/internal/usecase/category"
	productusecase "storefront/backend/internal/usecase/product"
	userusecase "storefront/backend/internal/usecase/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	tokens  *token.JWTManager
	users   *userusecase.Service
	store   *memory.Store
	metrics *Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	return newTestServerWithUsers(t, store, store.Users())
}

func newTestServerWithUsers(t *testing.T, store *memory.Store, users authdomain.UserRepository) *testServer {
	t.Helper()

	tokens, err := token.NewJWTManager("test-secret", time.Hour, "storefront")
	require.NoError(t, err)
	hasher := password.NewBcryptHasher(bcrypt.MinCost)

	userService := userusecase.NewService(users, hasher)
	services := Services{
		Auth:       authusecase.NewService(users, hasher, tokens),
		Users:      userService,
		Products:   productusecase.NewService(store.Products(), store.Categories()),
		Categories: categoryusecase.NewService(store.Categories()),
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	metrics := NewMetrics(prometheus.NewRegistry())

	cfg := config.Config{HTTPPort: "0", AllowedOrigins: []string{"*"}}
	srv := NewServer(cfg, services, logger, metrics)

	return &testServer{
		t:       t,
		handler: srv.Handler(),
		tokens:  tokens,
		users:   userService,
		store:   store,
		metrics: metrics,
	}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its login token.
func (ts *testServer) register(email string) string {
	ts.t.Helper()
	creds := map[string]string{"email": email, "password": "password123"}
	rec := ts.do(http.MethodPost, "/register", "", creds)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/login", "", creds)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(ts.t, out.Token)
	return out.Token
}

// admin registers an account and promotes it.
func (ts *testServer) admin(email string) string {
	ts.t.Helper()
	tok := ts.register(email)
	_, err := ts.users.PromoteByEmail(context.Background(), email)
	require.NoError(ts.t, err)
	return tok
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRegisterLoginMeScenario(t *testing.T) {
	ts := newTestServer(t)
	creds := map[string]string{"email": "a@x.com", "password": "password123"}

	rec := ts.do(http.MethodPost, "/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User created", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "USER", user["role"])
	assert.NotContains(t, rec.Body.String(), "asswordHash")

	rec = ts.do(http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)

	rec = ts.do(http.MethodGet, "/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "a@x.com", me["email"])
	assert.NotContains(t, rec.Body.String(), "asswordHash")

	rec = ts.do(http.MethodGet, "/admin/users", tok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, authdomain.ErrForbidden.Error(), decodeBody(t, rec)["error"])
}

func TestRegisterRejections(t *testing.T) {
	ts := newTestServer(t)
	ts.register("taken@x.com")

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "malformed json", body: "{", want: http.StatusBadRequest},
		{name: "empty body", body: nil, want: http.StatusBadRequest},
		{name: "unknown field", body: map[string]string{"email": "b@x.com", "password": "password123", "role": "ADMIN"}, want: http.StatusBadRequest},
		{name: "bad email", body: map[string]string{"email": "nope", "password": "password123"}, want: http.StatusBadRequest},
		{name: "short password", body: map[string]string{"email": "b@x.com", "password": "short"}, want: http.StatusBadRequest},
		{name: "duplicate", body: map[string]string{"email": "TAKEN@x.com", "password": "password123"}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/register", "", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.register("a@x.com")

	wrongPassword := ts.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "wrongpass1"})
	unknownEmail := ts.do(http.MethodPost, "/login", "", map[string]string{"email": "ghost@x.com", "password": "password123"})

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestProtectRoute(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.register("a@x.com")

	t.Run("missing header", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, msgNoToken, decodeBody(t, rec)["error"])
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic "+tok)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "bearer "+tok)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin route without token", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/admin/users", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := ts.register("ghost@x.com")
		u, err := ts.store.Users().GetByEmail(context.Background(), "ghost@x.com")
		require.NoError(t, err)
		require.NoError(t, ts.store.Users().Delete(context.Background(), u.ID))

		rec := ts.do(http.MethodGet, "/me", ghost, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorizeUsesCurrentRole(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.register("a@x.com")

	rec := ts.do(http.MethodGet, "/admin/users", tok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	_, err := ts.users.PromoteByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	// The token still says USER; the stored role decides.
	rec = ts.do(http.MethodGet, "/admin/users", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody(t, rec)["users"].([]any)
	assert.Len(t, users, 1)
	assert.NotContains(t, rec.Body.String(), "asswordHash")
}

func TestAdminUserManagement(t *testing.T) {
	ts := newTestServer(t)
	adminTok := ts.admin("root@x.com")

	rec := ts.do(http.MethodPost, "/admin/users/new", adminTok, map[string]string{
		"email": "new@x.com", "name": "New", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)["user"].(map[string]any)
	id := int64(created["id"].(float64))
	assert.Equal(t, "USER", created["role"])

	rec = ts.do(http.MethodPut, fmt.Sprintf("/admin/users/%d", id), adminTok, map[string]string{
		"name": "Renamed", "password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decodeBody(t, rec)["user"].(map[string]any)["name"])

	rec = ts.do(http.MethodPost, "/login", "", map[string]string{"email": "new@x.com", "password": "newpassword1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPut, fmt.Sprintf("/admin/users/%d/promote", id), adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", decodeBody(t, rec)["user"].(map[string]any)["role"])

	rec = ts.do(http.MethodGet, "/admin/users?role=admin", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["users"].([]any), 2)

	rec = ts.do(http.MethodGet, "/admin/users?role=owner", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, fmt.Sprintf("/users/%d", id), adminTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), adminTok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), adminTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/users/abc", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogRoutes(t *testing.T) {
	ts := newTestServer(t)
	adminTok := ts.admin("root@x.com")
	userTok := ts.register("shopper@x.com")

	rec := ts.do(http.MethodPost, "/admin/categories", userTok, map[string]string{"name": "Books"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/admin/categories", adminTok, map[string]string{"name": "Books"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	categoryID := int64(decodeBody(t, rec)["category"].(map[string]any)["id"].(float64))

	rec = ts.do(http.MethodPost, "/admin/categories", adminTok, map[string]string{"name": "books"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, fmt.Sprintf("/categories/%d/products", categoryID), userTok, map[string]any{
		"name": "Go Programming", "price": 39.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := int64(decodeBody(t, rec)["product"].(map[string]any)["id"].(float64))

	rec = ts.do(http.MethodPost, "/admin/products", adminTok, map[string]any{"name": "Pen", "price": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	penID := int64(decodeBody(t, rec)["product"].(map[string]any)["id"].(float64))

	rec = ts.do(http.MethodPost, "/admin/products", adminTok, map[string]any{"name": "Bad", "price": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/categories/9999/products", userTok, map[string]any{"name": "Lost", "price": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/products?name=GO", userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["products"].([]any), 1)

	rec = ts.do(http.MethodPut, fmt.Sprintf("/products/%d", productID), userTok, map[string]any{"price": 45})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 45, decodeBody(t, rec)["product"].(map[string]any)["price"])

	rec = ts.do(http.MethodGet, fmt.Sprintf("/categories/%d/products", categoryID), userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["products"].([]any), 1)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/admin/categories/%d/products/%d", categoryID, penID), adminTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/products/%d", penID), userTok, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/admin/products/%d", penID), adminTok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/admin/categories/%d/products", categoryID), adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["deleted"])

	rec = ts.do(http.MethodPut, fmt.Sprintf("/admin/categories/%d", categoryID), adminTok, map[string]string{"name": "Novels"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/categories", userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["categories"].([]any), 1)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/admin/categories/%d", categoryID), adminTok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, fmt.Sprintf("/categories/%d", categoryID), userTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// unavailableUsers simulates a lost database connection.
type unavailableUsers struct {
	authdomain.UserRepository
}

func (unavailableUsers) GetByEmail(context.Context, string) (*authdomain.User, error) {
	return nil, fmt.Errorf("%w: connection refused", storage.ErrUnavailable)
}

func (unavailableUsers) GetByID(context.Context, int64) (*authdomain.User, error) {
	return nil, fmt.Errorf("%w: connection refused", storage.ErrUnavailable)
}

func TestStoreUnavailableIsNotACredentialError(t *testing.T) {
	store := memory.New()
	ts := newTestServerWithUsers(t, store, unavailableUsers{})

	rec := ts.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "password123"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	tok, err := ts.tokens.Issue(authusecase.Claims{UserID: 1, Role: authdomain.RoleUser})
	require.NoError(t, err)
	rec = ts.do(http.MethodGet, "/me", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotFoundRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "resource not found", decodeBody(t, rec)["error"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodGet, "/me", "", nil)
	ts.do(http.MethodGet, "/health", "", nil)

	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `storefront_auth_failures_total{reason="missing_token"} 1`)
	assert.Contains(t, body, `route="/health"`)
	assert.Contains(t, body, `route="/me",status="401"`)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "BEARER   abc ", token: "abc", ok: true},
		{header: "Bearer", ok: false},
		{header: "Bearer    ", ok: false},
		{header: "Token abc", ok: false},
		{header: "abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := extractBearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
