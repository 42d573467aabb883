package user

import (
	"strings"

	"github.com/pkg/errors"
)

// Role is the closed set of roles a Masomo user can hold.
type Role uint8

// Roles
const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleTeacher
	RoleStudent
)

var (
	AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

	roleNames = map[Role]string{
		RoleAdmin:   "admin",
		RoleTeacher: "teacher",
		RoleStudent: "student",
	}
	roleLabels = map[Role]string{
		RoleAdmin:   "Admin",
		RoleTeacher: "Teacher",
		RoleStudent: "Student",
	}

	// errors
	ErrUnknownRole = errors.New("unknown role")
)

// ParseRole parses a role name. Scoped masomo roles such as "admin:principal" resolve to their base role.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	for role, name := range roleNames {
		if s == name {
			return role, nil
		}
	}
	return RoleUnknown, errors.Wrapf(ErrUnknownRole, "%q", s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Label is the human readable role name.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return "Unknown"
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// RoleSet is an immutable set of roles.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var set RoleSet
	for _, role := range roles {
		if role.IsValid() {
			set |= 1 << role
		}
	}
	return set
}

// ParseRoleSet parses role names; any unknown name fails the whole set.
func ParseRoleSet(names ...string) (RoleSet, error) {
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		role, err := ParseRole(name)
		if err != nil {
			return 0, err
		}
		roles = append(roles, role)
	}
	return NewRoleSet(roles...), nil
}

func (set RoleSet) Has(role Role) bool {
	return role.IsValid() && set&(1<<role) != 0
}

func (set RoleSet) IsEmpty() bool {
	return set == 0
}

func (set RoleSet) Roles() []Role {
	roles := make([]Role, 0, len(AllRoles))
	for _, role := range AllRoles {
		if set.Has(role) {
			roles = append(roles, role)
		}
	}
	return roles
}

func (set RoleSet) String() string {
	names := make([]string, 0, len(AllRoles))
	for _, role := range set.Roles() {
		names = append(names, role.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// User is the identity resolved by the auth server. It is a value object; never mutate a shared copy.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Validate checks the record the auth server sent back.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user id missing")
	}
	if !u.Role.IsValid() {
		return ErrUnknownRole
	}
	return nil
}

func (u User) IsZero() bool {
	return u == User{}
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}
