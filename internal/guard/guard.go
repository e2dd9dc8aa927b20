// Package guard decides whether a navigation target renders or redirects
// given the current session and the target's role policy.
package guard

import (
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/session"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Kind enumerates guard outcomes
type Kind int

const (
	ShowLoading Kind = iota
	Render
	Redirect
	NotFound
)

func (k Kind) String() string {
	switch k {
	case ShowLoading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Decision is the outcome of evaluating a route. To and Replace are only
// meaningful for redirects; Replace means the guarded entry is dropped from
// history.
type Decision struct {
	Kind    Kind
	To      string
	Replace bool
}

// Access is the result of the user-level authorization check
type Access int

const (
	Allowed Access = iota
	Unauthenticated
	Forbidden
)

// Authorize reports whether user may access something restricted to the
// given roles. An empty role set admits any authenticated user.
func Authorize(user *models.User, allowed []models.Role) Access {
	if user == nil {
		return Unauthenticated
	}
	if len(allowed) == 0 || user.HasRole(allowed...) {
		return Allowed
	}
	return Forbidden
}

// Decide evaluates a guarded route for the given session
func Decide(snap session.Snapshot, allowed []models.Role) Decision {
	if snap.Loading {
		return Decision{Kind: ShowLoading}
	}

	switch Authorize(snap.User, allowed) {
	case Unauthenticated:
		return Decision{Kind: Redirect, To: LoginPath, Replace: true}
	case Forbidden:
		return Decision{Kind: Redirect, To: DashboardPath, Replace: true}
	default:
		return Decision{Kind: Render}
	}
}
