// Package routes maps screen paths to their access level and decides
// whether the current session may open them.
package routes

import (
	"dashboard/internal/models"
	"dashboard/internal/session"
)

// Access level of a route.
type Access int

const (
	Public Access = iota
	Protected
	AdminOnly
)

// Route paths.
const (
	Home       = "/"
	Login      = "/login"
	Register   = "/register"
	Dashboard  = "/dashboard"
	Todos      = "/dashboard/todos"
	Expenses   = "/dashboard/expenses"
	Admin      = "/admin"
	AdminUsers = "/admin/users"
)

var table = map[string]Access{
	Home:       Public,
	Login:      Public,
	Register:   Public,
	Dashboard:  Protected,
	Todos:      Protected,
	Expenses:   Protected,
	Admin:      AdminOnly,
	AdminUsers: AdminOnly,
}

// Resolve returns the known route for path; unknown paths fall back to Home.
func Resolve(path string) (string, Access) {
	if a, ok := table[path]; ok {
		return path, a
	}
	return Home, Public
}

// Outcome of a guard check.
type Outcome int

const (
	Allow Outcome = iota
	Wait
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	default:
		return "redirect"
	}
}

// Decision is the result of Check. To is set when Outcome is Redirect.
type Decision struct {
	Outcome Outcome
	To      string
}

// Check decides whether st may open path. While the session is loading,
// protected routes wait. Without an identity they redirect to the login
// screen; admin routes redirect non-admins to the dashboard.
func Check(st session.State, path string) Decision {
	_, access := Resolve(path)
	if access == Public {
		return Decision{Outcome: Allow}
	}
	if st.Loading {
		return Decision{Outcome: Wait}
	}
	if st.User == nil {
		return Decision{Outcome: Redirect, To: Login}
	}
	if access == AdminOnly && !st.User.IsAdmin() {
		return Decision{Outcome: Redirect, To: Dashboard}
	}
	return Decision{Outcome: Allow}
}

// NavItem is an entry of the sidebar navigation.
type NavItem struct {
	Name string
	Href string
}

// Navigation lists the entries visible to id.
func Navigation(id *models.Identity) []NavItem {
	items := []NavItem{
		{"Dashboard", Dashboard},
		{"Tasks", Todos},
		{"Expenses", Expenses},
	}
	if id.IsAdmin() {
		items = append(items, NavItem{"Users", AdminUsers}, NavItem{"Admin Dashboard", Admin})
	}
	return items
}
