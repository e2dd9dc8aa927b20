package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the kind of actor behind an account
type Role string

const (
	RoleStudent    Role = "student"
	RoleCounsellor Role = "counsellor"
)

// Roles lists every known role
var Roles = []Role{RoleStudent, RoleCounsellor}

// ParseRole converts a wire value into a Role, rejecting unknown kinds
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleCounsellor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown user type %q", s)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// UnmarshalText keeps unknown roles from entering the system through JSON or YAML
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User represents an account profile as seen by clients
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	FullName        string    `json:"full_name"`
	Role            Role      `json:"user_type"`
	Bio             string    `json:"bio,omitempty"`
	Specializations []string  `json:"specializations,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	PasswordHash    string    `json:"-"` // Never serialize
	CreatedAt       time.Time `json:"created_at"`
}

// HasRole checks if the user is one of the given roles
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// FirstName returns the first word of the full name, falling back to the username
func (u *User) FirstName() string {
	if u == nil {
		return ""
	}
	if fields := strings.Fields(u.FullName); len(fields) > 0 {
		return fields[0]
	}
	return u.Username
}

// Public returns a copy safe to send over the wire
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	if u.Specializations != nil {
		cp.Specializations = append([]string(nil), u.Specializations...)
	}
	return &cp
}
