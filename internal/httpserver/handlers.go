package httpserver

import (
	"net/http"

	authdomain "storefront/backend/internal/domain/auth"
	authusecase "storefront/backend/internal/usecase/auth"
)

func (s *Server) registerRoutes() {
	if s.metrics != nil {
		s.router.Use(s.metrics.middleware)
	}

	// Admin routes are registered first so /admin/* never falls through to
	// the looser chains below.
	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.Use(s.protectRoute, s.authorize(authdomain.RoleAdmin))
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/new", s.handleCreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", s.handleUpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", s.handleDeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{id}/promote", s.handlePromoteUser).Methods(http.MethodPut)
	admin.HandleFunc("/products", s.handleCreateProduct).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id}", s.handleDeleteProduct).Methods(http.MethodDelete)
	admin.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)
	admin.HandleFunc("/categories/{id}/products", s.handleDeleteCategoryProducts).Methods(http.MethodDelete)
	admin.HandleFunc("/categories/{categoryId}/products/{productId}", s.handleDeleteCategoryProduct).Methods(http.MethodDelete)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	protected := s.router.NewRoute().Subrouter()
	protected.Use(s.protectRoute)
	protected.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	protected.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	protected.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	protected.HandleFunc("/products/{id}", s.handleUpdateProduct).Methods(http.MethodPut)
	protected.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	protected.HandleFunc("/categories/{id}", s.handleGetCategory).Methods(http.MethodGet)
	protected.HandleFunc("/categories/{id}/products", s.handleListCategoryProducts).Methods(http.MethodGet)
	protected.HandleFunc("/categories/{id}/products", s.handleCreateCategoryProduct).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := s.authService.Register(r.Context(), authusecase.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.requestLogger(r).WithField("user_id", user.ID).Info("user registered")
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created",
		"user":    user,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	token, _, err := s.authService.Login(r.Context(), authdomain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			s.metrics.authFailure("invalid_credentials")
			s.requestLogger(r).Warn("login rejected")
		}
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
