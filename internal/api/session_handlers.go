package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindmate-app/mindmate/internal/auth"
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/storage"
)

const tokenType = "bearer"

// handleRegister creates an account and logs it in
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(req.Email),
		Username:     strings.TrimSpace(req.Username),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Bio:          req.Bio,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if req.Role == models.RoleCounsellor {
		user.Specializations = nonEmpty(req.Specializations)
	}

	if err := s.repo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			respondError(w, http.StatusConflict, "Email already registered")
			return
		}
		slog.Error("failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "user_type", user.Role)
	s.respondWithToken(w, user)
}

// handleLogin checks credentials and issues a token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.repo.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		slog.Error("failed to look up user", "error", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		slog.Warn("failed login attempt", "remote_addr", r.RemoteAddr)
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	s.respondWithToken(w, user)
}

func (s *Server) respondWithToken(w http.ResponseWriter, user *models.User) {
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not create session")
		return
	}

	respondJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
		User:        user.Public(),
	})
}

// handleMe returns the profile behind the bearer token
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, UserFromContext(r.Context()).Public())
}

// handleLogout revokes the bearer token until it would have expired
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := s.revoked.Revoke(r.Context(), claims.TokenID(), claims.Remaining(time.Now())); err != nil {
		slog.Error("failed to revoke token", "error", err)
		respondError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	slog.Info("user logged out", "user_id", claims.UserID())
	w.WriteHeader(http.StatusNoContent)
}

// handleListCounsellors returns the counsellor directory
func (s *Server) handleListCounsellors(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListCounsellors(r.Context())
	if err != nil {
		slog.Error("failed to list counsellors", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list counsellors")
		return
	}

	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	respondJSON(w, http.StatusOK, out)
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
