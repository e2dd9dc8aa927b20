package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mindmate-app/mindmate/internal/auth"
	"github.com/mindmate-app/mindmate/internal/guard"
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/revocation"
	"github.com/mindmate-app/mindmate/internal/storage"
)

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	repo    storage.Repository
	issuer  *auth.Issuer
	revoked revocation.Store
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(repo storage.Repository, issuer *auth.Issuer, revoked revocation.Store) *AuthMiddleware {
	return &AuthMiddleware{repo: repo, issuer: issuer, revoked: revoked}
}

// Authenticate verifies the bearer token in the Authorization header
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.serveWithToken(w, r, extractBearer(r), next)
	})
}

// AuthenticateQuery verifies a token passed as the "token" query parameter.
// Browsers cannot set headers on websocket upgrades.
func (m *AuthMiddleware) AuthenticateQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.serveWithToken(w, r, r.URL.Query().Get("token"), next)
	})
}

func (m *AuthMiddleware) serveWithToken(w http.ResponseWriter, r *http.Request, token string, next http.Handler) {
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, claims, err := m.resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, storage.ErrUserNotFound) {
			slog.Warn("rejected token", "error", err, "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		slog.Error("failed to authenticate request", "error", err)
		respondError(w, http.StatusInternalServerError, "Authentication error")
		return
	}

	slog.Debug("authenticated request", "user_id", user.ID, "user_type", user.Role)

	ctx := ContextWithUser(r.Context(), user)
	ctx = contextWithClaims(ctx, claims)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// resolve validates the token and loads its user
func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, auth.ErrInvalidToken
	}

	user, err := m.repo.GetUserByID(ctx, claims.UserID())
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// RequireRoles returns middleware that admits only the given roles. An
// empty list admits any authenticated user.
func (m *AuthMiddleware) RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())

			switch guard.Authorize(user, roles) {
			case guard.Unauthenticated:
				respondError(w, http.StatusUnauthorized, "Not authenticated")
				return
			case guard.Forbidden:
				slog.Warn("role denied",
					"user_id", user.ID,
					"user_type", user.Role,
					"required", roles,
				)
				respondError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer extracts the token from "Authorization: Bearer <token>"
func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
