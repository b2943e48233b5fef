package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authdomain "storefront/backend/internal/domain/auth"

	"github.com/gorilla/mux"
)

const msgNoToken = "unauthorized: no token provided"

type ctxKeyUser struct{}

// protectRoute authenticates the bearer token and stores the current user
// in the request context.
func (s *Server) protectRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			s.rejectAuth(w, r, "missing_token", http.StatusUnauthorized, msgNoToken)
			return
		}

		token, ok := extractBearerToken(header)
		if !ok {
			s.rejectAuth(w, r, "malformed_header", http.StatusUnauthorized, authdomain.ErrTokenInvalid.Error())
			return
		}

		user, err := s.authService.VerifyToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, authdomain.ErrTokenInvalid) {
				s.rejectAuth(w, r, "invalid_token", http.StatusUnauthorized, authdomain.ErrTokenInvalid.Error())
				return
			}
			s.writeServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize admits only users holding one of roles. It must run after
// protectRoute.
func (s *Server) authorize(roles ...authdomain.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := currentUserFromContext(r.Context())
			if !ok {
				s.rejectAuth(w, r, "missing_context", http.StatusUnauthorized, "authentication required")
				return
			}
			if !user.HasRole(roles...) {
				s.rejectAuth(w, r, "forbidden", http.StatusForbidden, authdomain.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) rejectAuth(w http.ResponseWriter, r *http.Request, reason string, status int, message string) {
	s.metrics.authFailure(reason)
	s.requestLogger(r).WithField("reason", reason).Warn("request rejected by auth guard")
	writeError(w, status, message)
}

func currentUserFromContext(ctx context.Context) (*authdomain.User, bool) {
	user, ok := ctx.Value(ctxKeyUser{}).(*authdomain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// extractBearerToken returns the token from a "Bearer <token>" header.
// The scheme is matched case-insensitively.
func extractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
