package models

import (
	"errors"
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// LoginRequest represents a credential check
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a new account submission
type RegisterRequest struct {
	Email           string   `json:"email"`
	Username        string   `json:"username"`
	FullName        string   `json:"full_name"`
	Password        string   `json:"password"`
	Role            Role     `json:"user_type"`
	Bio             string   `json:"bio,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
}

// Validate checks a registration payload on the server side
func (r *RegisterRequest) Validate() error {
	if !emailRegex.MatchString(r.Email) || len(r.Email) > 255 {
		return errors.New("a valid email is required")
	}
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return errors.New("full name is required")
	}
	if len(r.Password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters long")
	}
	if !r.Role.Valid() {
		return errors.New("user_type must be student or counsellor")
	}
	return nil
}

// AuthResponse is returned by login and registration
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	User        *User  `json:"user"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// CreateQuizRequest represents a counsellor-authored quiz
type CreateQuizRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	Questions   []Question `json:"questions"`
}
