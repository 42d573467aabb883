package session

import (
	"context"

	"github.com/trezcool/masomo-portal/core/user"
)

// Status of the application Session.
type Status int

const (
	Unauthenticated Status = iota
	Verifying
	Authenticated
	Failed
)

var statusTexts = map[Status]string{
	Unauthenticated: "unauthenticated",
	Verifying:       "verifying",
	Authenticated:   "authenticated",
	Failed:          "failed",
}

func (s Status) String() string {
	return statusTexts[s]
}

// Session is a snapshot of "who is using the app right now".
//   - User is set only when Authenticated.
//   - Token is set only when Authenticated or Verifying.
//   - LastError is set only when Failed.
type Session struct {
	Status    Status
	User      user.User
	Token     string
	LastError error
}

func (s Session) IsAuthenticated() bool {
	return s.Status == Authenticated
}

func (s Session) IsPending() bool {
	return s.Status == Verifying
}

type (
	// CredentialStore persists exactly one opaque token across restarts.
	CredentialStore interface {
		// Save overwrites any previous token.
		Save(token string) error
		// Load never fails; unreadable storage reads as absent.
		Load() (token string, ok bool)
		// Clear is idempotent.
		Clear() error
	}

	// Authenticator talks to the auth server. Failures should be *Error values.
	Authenticator interface {
		Login(ctx context.Context, email, password string) (token string, usr user.User, err error)
		Verify(ctx context.Context, token string) (user.User, error)
	}
)
