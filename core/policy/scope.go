package policy

import (
	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/user"
)

// ScopeFor returns the tenant filter a list query must apply for the
// principal. Admins see everything; everyone else is fenced to their school,
// narrowed further by role:
//
//	teacher     grades and subjects of subjects assigned to them,
//	            reports they authored
//	student     their own grades and enrollments
//
// Notifications are always the principal's own, schools are never scoped.
func ScopeFor(p Principal, e Entity) core.Scope {
	var scope core.Scope
	if p.IsAdmin() || e == EntitySchool {
		return scope
	}
	if e == EntityNotification {
		scope.UserID = core.IntPtr(p.UserID)
		return scope
	}

	scope.SchoolID = core.IntPtr(p.SchoolID)
	switch e {
	case EntityGrade:
		if p.HasRole(user.RoleTeacher) {
			scope.TeacherID = core.IntPtr(p.UserID)
		}
		if p.HasRole(user.RoleStudent) {
			scope.UserID = core.IntPtr(p.UserID)
		}
	case EntitySubject:
		if p.HasRole(user.RoleTeacher) {
			scope.TeacherID = core.IntPtr(p.UserID)
		}
	case EntityEnrollment:
		if p.HasRole(user.RoleStudent) {
			scope.UserID = core.IntPtr(p.UserID)
		}
	case EntityReport:
		if p.HasRole(user.RoleTeacher) && !p.HasRole(user.RoleCoordinator) {
			scope.TeacherID = core.IntPtr(p.UserID)
		}
	}
	return scope
}
