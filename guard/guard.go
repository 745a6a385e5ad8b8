// Package guard decides whether a page may render for the current session.
package guard

import (
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

type Outcome int

const (
	Render Outcome = iota
	Loading
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the result of Decide. Path is only set for Redirect.
type Decision struct {
	Outcome Outcome
	Path    string
}

// State is the part of a session the guard looks at
type State interface {
	Loading() bool
	CurrentUser() *users.User
}

var _ State = (*session.AuthContext)(nil)

// Decide applies the route guard rules in order:
// loading renders a placeholder, no user goes to login, a role outside allowed goes
// to that role's own dashboard, anything else renders. An empty allowed list admits every role.
func Decide(state State, allowed ...users.Role) Decision {
	if state == nil {
		return Decision{Outcome: Redirect, Path: session.RouteLogin}
	}
	if state.Loading() {
		return Decision{Outcome: Loading}
	}
	user := state.CurrentUser()
	if user == nil {
		return Decision{Outcome: Redirect, Path: session.RouteLogin}
	}
	if len(allowed) > 0 && !user.Role.In(allowed...) {
		return Decision{Outcome: Redirect, Path: session.DashboardRoute(user.Role)}
	}
	return Decision{Outcome: Render}
}
