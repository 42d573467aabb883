// Package nav resolves the menu entries a role may see.
package nav

import (
	"github.com/trezcool/masomo-portal/core/user"
)

// Entry is one menu item.
type Entry struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

var (
	common = []Entry{
		{Path: "/", Label: "Home"},
		{Path: "/profile", Label: "Profile"},
	}

	byRole = map[user.Role][]Entry{
		user.RoleAdmin: {
			{Path: "/admin/users", Label: "Users"},
			{Path: "/admin/courses", Label: "Courses"},
			{Path: "/admin/students", Label: "Students"},
			{Path: "/admin/teachers", Label: "Teachers"},
			{Path: "/admin/reports", Label: "Reports"},
		},
		user.RoleTeacher: {
			{Path: "/teacher/courses", Label: "Courses"},
			{Path: "/teacher/attendance", Label: "Attendance"},
			{Path: "/teacher/assignments", Label: "Assignments"},
			{Path: "/teacher/students", Label: "Students"},
		},
		user.RoleStudent: {
			{Path: "/student/courses", Label: "Courses"},
			{Path: "/student/attendance", Label: "Attendance"},
			{Path: "/student/assignments", Label: "Assignments"},
			{Path: "/student/grades", Label: "Grades"},
		},
	}
)

// Resolve returns the common entries followed by the role's own. Unknown roles only get the common ones.
func Resolve(role user.Role) []Entry {
	own := byRole[role]
	entries := make([]Entry, 0, len(common)+len(own))
	entries = append(entries, common...)
	return append(entries, own...)
}

// Sections returns the role specific section names, eg. "courses" for "/teacher/courses".
func Sections(role user.Role) []string {
	own := byRole[role]
	prefix := len("/" + role.String() + "/")
	sections := make([]string, 0, len(own))
	for _, e := range own {
		sections = append(sections, e.Path[prefix:])
	}
	return sections
}
