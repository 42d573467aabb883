package authz

import (
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Outcome of an authorization Decision.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
	// Pending means the Session is still being verified; render a loading state, it is not a security decision.
	Pending
)

// Decision is computed per navigation, never stored.
type Decision struct {
	Outcome Outcome
	Path    string // set only for Redirect
}

func RedirectTo(path string) Decision {
	return Decision{Outcome: Redirect, Path: path}
}

func (d Decision) IsAllowed() bool {
	return d.Outcome == Allow
}

func (d Decision) String() string {
	switch d.Outcome {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	default:
		return "redirect " + d.Path
	}
}

// Decide tells whether s may reach a subtree open to allowed roles. It is pure.
//
// An authenticated user lacking the role is sent home rather than to the login page:
// logging in again would not grant the role.
func Decide(s session.Session, allowed user.RoleSet) Decision {
	switch {
	case s.Status == session.Verifying:
		return Decision{Outcome: Pending}
	case s.Status != session.Authenticated:
		return RedirectTo(LoginPath)
	case !allowed.Has(s.User.Role):
		return RedirectTo(HomePath)
	default:
		return Decision{Outcome: Allow}
	}
}

// Any is the RoleSet of every known role, for screens open to all authenticated users.
var Any = user.NewRoleSet(user.AllRoles...)
