package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colegiohq/backend/core/user"
)

func principal(id, schoolID int, role string) Principal {
	return Principal{
		UserID:      id,
		SchoolID:    schoolID,
		Roles:       []string{role},
		Permissions: user.PermissionsFor(role),
	}
}

func TestAllow_tenantRule(t *testing.T) {
	admin := principal(1, 1, user.RoleAdmin)
	coord := principal(2, 1, user.RoleCoordinator)

	tests := []struct {
		name    string
		p       Principal
		e       Entity
		a       Action
		r       Record
		wantErr string
	}{
		{name: "same school allowed", p: coord, e: EntityCourse, a: ActionRead, r: Record{SchoolID: 1}},
		{name: "other school denied", p: coord, e: EntityCourse, a: ActionRead, r: Record{SchoolID: 2},
			wantErr: "no permissions to operate outside your school"},
		{name: "body school denied", p: coord, e: EntityUser, a: ActionCreate, r: Record{BodySchoolID: 2},
			wantErr: "no permissions to operate outside your school"},
		{name: "unchecked when zero", p: coord, e: EntityCourse, a: ActionList, r: Record{}},
		{name: "admin crosses schools", p: admin, e: EntityCourse, a: ActionRead, r: Record{SchoolID: 2}},
		{name: "admin crosses on create", p: admin, e: EntityUser, a: ActionCreate, r: Record{BodySchoolID: 2}},
		{name: "schools never tenant checked", p: coord, e: EntitySchool, a: ActionRead, r: Record{SchoolID: 2}},
		{name: "unknown action denied", p: admin, e: EntityCourse, a: ActionMarkRead, r: Record{},
			wantErr: "no permissions to perform this action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Allow(tt.p, tt.e, tt.a, tt.r)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
				assert.IsType(t, &ForbiddenError{}, err)
			}
		})
	}
}

func TestAllow_selfDelete(t *testing.T) {
	admin := principal(1, 1, user.RoleAdmin)

	// the overlay binds admins too
	err := Allow(admin, EntityUser, ActionDelete, Record{SchoolID: 1, TargetUserID: 1})
	assert.EqualError(t, err, "cannot delete own account")

	assert.NoError(t, Allow(admin, EntityUser, ActionDelete, Record{SchoolID: 2, TargetUserID: 9}))
}

func TestAllow_grades(t *testing.T) {
	teacher := principal(10, 1, user.RoleTeacher)
	student := principal(20, 1, user.RoleStudent)
	coord := principal(30, 1, user.RoleCoordinator)

	t.Run("teacher owns subject", func(t *testing.T) {
		assert.NoError(t, Allow(teacher, EntityGrade, ActionCreate, Record{SchoolID: 1, TeacherID: 10}))
	})
	t.Run("teacher foreign subject", func(t *testing.T) {
		err := Allow(teacher, EntityGrade, ActionCreate, Record{SchoolID: 1, TeacherID: 11})
		assert.EqualError(t, err, "no permissions to manage grades for this subject")
	})
	t.Run("coordinator unaffected by subject ownership", func(t *testing.T) {
		assert.NoError(t, Allow(coord, EntityGrade, ActionList, Record{SchoolID: 1, TeacherID: 11}))
	})
	t.Run("student reads own grade", func(t *testing.T) {
		assert.NoError(t, Allow(student, EntityGrade, ActionRead, Record{SchoolID: 1, OwnerID: 20}))
	})
	t.Run("student denied on others", func(t *testing.T) {
		err := Allow(student, EntityGrade, ActionRead, Record{SchoolID: 1, OwnerID: 21})
		assert.EqualError(t, err, "no permissions to view this grade")
	})
}

func TestAllow_reports(t *testing.T) {
	admin := principal(1, 1, user.RoleAdmin)
	coord1 := principal(2, 1, user.RoleCoordinator)
	coord2 := principal(3, 2, user.RoleCoordinator)
	teacher := principal(4, 1, user.RoleTeacher)
	otherTeacher := principal(5, 1, user.RoleTeacher)
	student := principal(6, 1, user.RoleStudent)

	rpt := Record{SchoolID: 1, TeacherID: 4}

	t.Run("read", func(t *testing.T) {
		assert.NoError(t, Allow(admin, EntityReport, ActionRead, rpt))
		assert.NoError(t, Allow(coord1, EntityReport, ActionRead, rpt))
		assert.NoError(t, Allow(teacher, EntityReport, ActionRead, rpt))
		assert.Error(t, Allow(coord2, EntityReport, ActionRead, rpt))
		assert.Error(t, Allow(otherTeacher, EntityReport, ActionRead, rpt))
	})

	t.Run("create roles", func(t *testing.T) {
		assert.NoError(t, Allow(teacher, EntityReport, ActionCreate, Record{}))
		assert.NoError(t, Allow(admin, EntityReport, ActionCreate, Record{}))
		assert.Error(t, Allow(coord1, EntityReport, ActionCreate, Record{}))
		assert.Error(t, Allow(student, EntityReport, ActionCreate, Record{}))
	})

	t.Run("mark read roles", func(t *testing.T) {
		assert.NoError(t, Allow(coord1, EntityReport, ActionMarkRead, rpt))
		assert.Error(t, Allow(teacher, EntityReport, ActionMarkRead, rpt))
		assert.Error(t, Allow(coord2, EntityReport, ActionMarkRead, rpt))
	})

	t.Run("delete", func(t *testing.T) {
		assert.NoError(t, Allow(teacher, EntityReport, ActionDelete, rpt))
		assert.NoError(t, Allow(admin, EntityReport, ActionDelete, rpt))
		assert.Error(t, Allow(coord1, EntityReport, ActionDelete, rpt))
	})
}

func TestAllow_notifications(t *testing.T) {
	admin := principal(1, 1, user.RoleAdmin)
	coord := principal(2, 1, user.RoleCoordinator)

	assert.NoError(t, Allow(coord, EntityNotification, ActionMarkRead, Record{OwnerID: 2}))
	assert.Error(t, Allow(coord, EntityNotification, ActionMarkRead, Record{OwnerID: 3}))
	// strictly personal, admins included
	assert.Error(t, Allow(admin, EntityNotification, ActionMarkRead, Record{OwnerID: 2}))
}

func TestAllow_statistics(t *testing.T) {
	assert.NoError(t, Allow(principal(1, 1, user.RoleAdmin), EntityStatistics, ActionList, Record{}))
	for _, role := range []string{user.RoleCoordinator, user.RoleTeacher, user.RoleStudent} {
		assert.Error(t, Allow(principal(2, 1, role), EntityStatistics, ActionList, Record{}))
	}
}
