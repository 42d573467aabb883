package authz

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

func authenticated(role user.Role) session.Session {
	return session.Session{
		Status: session.Authenticated,
		User:   user.User{ID: "1", Name: "Jo", Email: "jo@x.com", Role: role},
		Token:  "T1",
	}
}

func allRoleSets() []user.RoleSet {
	sets := make([]user.RoleSet, 0, 8)
	for i := 0; i < 8; i++ {
		var roles []user.Role
		for j, role := range user.AllRoles {
			if i&(1<<j) != 0 {
				roles = append(roles, role)
			}
		}
		sets = append(sets, user.NewRoleSet(roles...))
	}
	return sets
}

func allSessions() []session.Session {
	return []session.Session{
		{Status: session.Unauthenticated},
		{Status: session.Verifying, Token: "T1"},
		{Status: session.Verifying},
		{Status: session.Failed, LastError: session.NewError(session.KindInvalidCredentials, 401, errors.New("authentication failed"))},
		authenticated(user.RoleAdmin),
		authenticated(user.RoleTeacher),
		authenticated(user.RoleStudent),
	}
}

func TestDecide(t *testing.T) {
	admins := user.NewRoleSet(user.RoleAdmin)
	students := user.NewRoleSet(user.RoleStudent)
	staff := user.NewRoleSet(user.RoleAdmin, user.RoleTeacher)

	tests := []struct {
		name    string
		session session.Session
		allowed user.RoleSet
		want    Decision
	}{
		{name: "verifying is pending", session: session.Session{Status: session.Verifying, Token: "T1"}, allowed: admins, want: Decision{Outcome: Pending}},
		{name: "unauthenticated to login", session: session.Session{Status: session.Unauthenticated}, allowed: admins, want: RedirectTo("/login")},
		{name: "failed to login", session: session.Session{Status: session.Failed}, allowed: students, want: RedirectTo("/login")},
		{name: "student on admin screen goes home", session: authenticated(user.RoleStudent), allowed: admins, want: RedirectTo("/")},
		{name: "student on student screen", session: authenticated(user.RoleStudent), allowed: students, want: Decision{Outcome: Allow}},
		{name: "teacher on staff screen", session: authenticated(user.RoleTeacher), allowed: staff, want: Decision{Outcome: Allow}},
		{name: "admin on staff screen", session: authenticated(user.RoleAdmin), allowed: staff, want: Decision{Outcome: Allow}},
		{name: "any authenticated user", session: authenticated(user.RoleStudent), allowed: Any, want: Decision{Outcome: Allow}},
		{name: "empty role set", session: authenticated(user.RoleAdmin), allowed: user.NewRoleSet(), want: RedirectTo("/")},
		{name: "unknown role", session: authenticated(user.RoleUnknown), allowed: Any, want: RedirectTo("/")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.session, tt.allowed); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecide_idempotent(t *testing.T) {
	for _, s := range allSessions() {
		for _, set := range allRoleSets() {
			before := s
			first, second := Decide(s, set), Decide(s, set)
			if first != second {
				t.Errorf("Decide(%v, %v) = %v then %v", s.Status, set, first, second)
			}
			if s.Status != before.Status || s.Token != before.Token || s.User != before.User {
				t.Errorf("Decide() mutated the session: %+v", s)
			}
		}
	}
}

func TestDecide_noSession(t *testing.T) {
	for _, set := range allRoleSets() {
		if set.IsEmpty() {
			continue
		}
		for _, s := range []session.Session{{Status: session.Unauthenticated}, {Status: session.Failed}} {
			if got := Decide(s, set); got != RedirectTo(LoginPath) {
				t.Errorf("Decide(%v, %v) = %v, want redirect %s", s.Status, set, got, LoginPath)
			}
		}
	}
}

func TestDecision_String(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{d: Decision{Outcome: Allow}, want: "allow"},
		{d: Decision{Outcome: Pending}, want: "pending"},
		{d: RedirectTo("/login"), want: "redirect /login"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
