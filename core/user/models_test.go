package user

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Role
		wantErr bool
	}{
		{name: "admin", in: "admin", want: RoleAdmin},
		{name: "teacher (spaces & case)", in: "  Teacher ", want: RoleTeacher},
		{name: "student", in: "student", want: RoleStudent},
		{name: "scoped admin", in: "admin:principal", want: RoleAdmin},
		{name: "scoped teacher prefix", in: "teacher:", want: RoleTeacher},
		{name: "unknown", in: "janitor", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && errors.Cause(err) != ErrUnknownRole {
				t.Errorf("ParseRole() error cause = %v, want %v", errors.Cause(err), ErrUnknownRole)
			}
			if got != tt.want {
				t.Errorf("ParseRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleTeacher, RoleAdmin, RoleUnknown)

	if !set.Has(RoleAdmin) || !set.Has(RoleTeacher) {
		t.Errorf("set %v should hold admin and teacher", set)
	}
	if set.Has(RoleStudent) || set.Has(RoleUnknown) {
		t.Errorf("set %v should not hold student nor unknown", set)
	}
	assert.Equal(t, []Role{RoleAdmin, RoleTeacher}, set.Roles())
	assert.Equal(t, "{admin,teacher}", set.String())

	if !NewRoleSet().IsEmpty() {
		t.Error("empty set is not empty")
	}

	parsed, err := ParseRoleSet("teacher", "admin")
	if err != nil {
		t.Fatalf("ParseRoleSet() error = %v", err)
	}
	if parsed != set {
		t.Errorf("ParseRoleSet() = %v, want %v", parsed, set)
	}
	if _, err = ParseRoleSet("admin", "lol"); err == nil {
		t.Error("ParseRoleSet() should fail on unknown role")
	}
}

func TestUser_JSON(t *testing.T) {
	var usr User
	data := []byte(`{"id":"1","name":"Jo","email":"jo@x.com","role":"teacher"}`)
	if err := json.Unmarshal(data, &usr); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	want := User{ID: "1", Name: "Jo", Email: "jo@x.com", Role: RoleTeacher}
	if usr != want {
		t.Errorf("json.Unmarshal() = %+v, want %+v", usr, want)
	}
	if !usr.IsTeacher() || usr.IsAdmin() || usr.IsStudent() {
		t.Errorf("role helpers disagree with role %v", usr.Role)
	}

	if err := json.Unmarshal([]byte(`{"id":"1","role":"janitor"}`), &usr); err == nil {
		t.Error("json.Unmarshal() should reject unknown roles")
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		usr     User
		wantErr bool
	}{
		{name: "valid", usr: User{ID: "1", Role: RoleStudent}},
		{name: "no id", usr: User{Role: RoleStudent}, wantErr: true},
		{name: "no role", usr: User{ID: "1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.usr.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
