package session

import (
	"errors"
	"strings"

	"github.com/mindmate-app/mindmate/internal/models"
)

var (
	ErrMissingFields    = errors.New("email, username and full name are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
)

// ProfileDraft is the registration form as filled in by the user
type ProfileDraft struct {
	Role            models.Role
	FullName        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Bio             string
	Specializations []string
}

// Validate runs the checks done before anything is sent to the server
func (d ProfileDraft) Validate() error {
	if strings.TrimSpace(d.Email) == "" || strings.TrimSpace(d.Username) == "" || strings.TrimSpace(d.FullName) == "" {
		return ErrMissingFields
	}
	if d.Password != d.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(d.Password) < models.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Payload builds the registration request. Specializations only apply to
// counsellors and empty entries are dropped.
func (d ProfileDraft) Payload() models.RegisterRequest {
	req := models.RegisterRequest{
		Email:    d.Email,
		Username: d.Username,
		FullName: d.FullName,
		Password: d.Password,
		Role:     d.Role,
		Bio:      d.Bio,
	}

	switch d.Role {
	case models.RoleCounsellor:
		req.Specializations = make([]string, 0, len(d.Specializations))
		for _, s := range d.Specializations {
			if strings.TrimSpace(s) != "" {
				req.Specializations = append(req.Specializations, s)
			}
		}
	case models.RoleStudent:
		req.Specializations = []string{}
	}

	return req
}
