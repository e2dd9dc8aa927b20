package guard

import (
	"fmt"
	"strings"

	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/session"
)

// Route is a navigable page and its access policy
type Route struct {
	Path      string
	Title     string
	Protected bool
	Roles     []models.Role
}

var routes = []Route{
	{Path: "/", Title: "Home"},
	{Path: LoginPath, Title: "Login"},
	{Path: "/register", Title: "Register"},
	{Path: DashboardPath, Title: "Dashboard", Protected: true},
	{Path: "/community", Title: "Community", Protected: true},
	{Path: "/booking", Title: "Book Session", Protected: true, Roles: []models.Role{models.RoleStudent}},
	{Path: "/resources", Title: "Resources", Protected: true},
	{Path: "/quiz", Title: "Quizzes", Protected: true},
	{Path: "/about", Title: "About", Protected: true},
	{Path: "/chatbot", Title: "AI Chat", Protected: true},
	{Path: "/counsellor-dashboard", Title: "My Sessions", Protected: true, Roles: []models.Role{models.RoleCounsellor}},
}

// Routes returns the route table
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup finds the route registered for path
func Lookup(path string) (Route, bool) {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Navigate resolves path against the route table and evaluates its policy.
// Public routes always render.
func Navigate(path string, snap session.Snapshot) (Route, Decision) {
	route, ok := Lookup(path)
	if !ok {
		return Route{Path: path}, Decision{Kind: NotFound}
	}
	if !route.Protected {
		return route, Decision{Kind: Render}
	}
	return route, Decide(snap, route.Roles)
}

// NavItems lists the navigation entries shown to a signed-in user
func NavItems(role models.Role) ([]Route, error) {
	items := []Route{mustLookup(DashboardPath), mustLookup("/community")}

	switch role {
	case models.RoleStudent:
		items = append(items, mustLookup("/booking"))
	case models.RoleCounsellor:
		items = append(items, mustLookup("/counsellor-dashboard"))
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	return append(items,
		mustLookup("/resources"),
		mustLookup("/quiz"),
		mustLookup("/chatbot"),
	), nil
}

func mustLookup(path string) Route {
	r, ok := Lookup(path)
	if !ok {
		panic("guard: route not registered: " + path)
	}
	return r
}
