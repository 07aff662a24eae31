package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/user"
)

func TestScopeFor(t *testing.T) {
	schoolOnly := core.Scope{SchoolID: core.IntPtr(1)}

	tests := []struct {
		name string
		p    Principal
		e    Entity
		want core.Scope
	}{
		{name: "admin unscoped", p: principal(1, 1, user.RoleAdmin), e: EntityUser, want: core.Scope{}},
		{name: "schools unscoped", p: principal(2, 1, user.RoleCoordinator), e: EntitySchool, want: core.Scope{}},
		{name: "coordinator fenced to school", p: principal(2, 1, user.RoleCoordinator), e: EntityUser, want: schoolOnly},
		{name: "coordinator sees school grades", p: principal(2, 1, user.RoleCoordinator), e: EntityGrade, want: schoolOnly},
		{name: "teacher grades narrowed to own subjects", p: principal(3, 1, user.RoleTeacher), e: EntityGrade,
			want: core.Scope{SchoolID: core.IntPtr(1), TeacherID: core.IntPtr(3)}},
		{name: "teacher subjects narrowed", p: principal(3, 1, user.RoleTeacher), e: EntitySubject,
			want: core.Scope{SchoolID: core.IntPtr(1), TeacherID: core.IntPtr(3)}},
		{name: "teacher reports narrowed", p: principal(3, 1, user.RoleTeacher), e: EntityReport,
			want: core.Scope{SchoolID: core.IntPtr(1), TeacherID: core.IntPtr(3)}},
		{name: "teacher courses school wide", p: principal(3, 1, user.RoleTeacher), e: EntityCourse, want: schoolOnly},
		{name: "student grades own", p: principal(4, 1, user.RoleStudent), e: EntityGrade,
			want: core.Scope{SchoolID: core.IntPtr(1), UserID: core.IntPtr(4)}},
		{name: "student enrollments own", p: principal(4, 1, user.RoleStudent), e: EntityEnrollment,
			want: core.Scope{SchoolID: core.IntPtr(1), UserID: core.IntPtr(4)}},
		{name: "coordinator reports school wide", p: principal(2, 1, user.RoleCoordinator), e: EntityReport, want: schoolOnly},
		{name: "notifications always personal", p: principal(2, 1, user.RoleCoordinator), e: EntityNotification,
			want: core.Scope{UserID: core.IntPtr(2)}},
		{name: "admin notifications unscoped", p: principal(1, 1, user.RoleAdmin), e: EntityNotification, want: core.Scope{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeFor(tt.p, tt.e))
		})
	}
}
