package httpserver

import (
	"context"
	"net/http"

	"storefront/backend/internal/config"
	authusecase "storefront/backend/internal/usecase/auth"
	categoryusecase "storefront/backend/internal/usecase/category"
	productusecase "storefront/backend/internal/usecase/product"
	userusecase "storefront/backend/internal/usecase/user"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Auth       *authusecase.Service
	Users      *userusecase.Service
	Products   *productusecase.Service
	Categories *categoryusecase.Service
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler

	authService     *authusecase.Service
	userService     *userusecase.Service
	productService  *productusecase.Service
	categoryService *categoryusecase.Service

	logger  *logrus.Logger
	metrics *Metrics
	addr    string
}

// NewServer constructs a new Server with configured dependencies. A nil
// metrics disables instrumentation and the /metrics endpoint.
func NewServer(cfg config.Config, services Services, logger *logrus.Logger, metrics *Metrics) *Server {
	router := mux.NewRouter()
	router.NotFoundHandler = notFoundHandler()
	router.MethodNotAllowedHandler = methodNotAllowedHandler()

	s := &Server{
		router:          router,
		authService:     services.Auth,
		userService:     services.Users,
		productService:  services.Products,
		categoryService: services.Categories,
		logger:          logger,
		metrics:         metrics,
		addr:            cfg.Addr(),
	}
	s.registerRoutes()

	s.handler = otelhttp.NewHandler(
		s.withLogging(withCORS(router, cfg.AllowedOrigins)),
		"storefront",
	)
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
