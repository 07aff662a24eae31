package policy

import "github.com/colegiohq/backend/core/user"

// Entities subject to authorization.
type Entity string

const (
	EntitySchool       Entity = "school"
	EntityUser         Entity = "user"
	EntityCourse       Entity = "course"
	EntitySubject      Entity = "subject"
	EntityEnrollment   Entity = "enrollment"
	EntityGrade        Entity = "grade"
	EntityReport       Entity = "report"
	EntityNotification Entity = "notification"
	EntityStatistics   Entity = "statistics"
)

// Actions a principal may attempt on an entity.
type Action string

const (
	ActionList     Action = "list"
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionMarkRead Action = "mark_read"
)

// Record carries the authorization-relevant attributes of the target row (or,
// for creations, of the request body). Zero-valued fields are not checked.
type Record struct {
	// SchoolID is the stored row's school.
	SchoolID int
	// BodySchoolID is the school a create/update body assigns the row to.
	BodySchoolID int
	// OwnerID is the user the row belongs to (a grade's student, a
	// notification's addressee).
	OwnerID int
	// TeacherID is the teacher attached to the row (a subject's assigned
	// teacher, a report's author).
	TeacherID int
	// TargetUserID is the user a user-entity action operates on.
	TargetUserID int
}

// ForbiddenError denies an action; the API layer renders it as a 403.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

func forbidden(reason string) error { return &ForbiddenError{Reason: reason} }

const msgOutsideSchool = "no permissions to operate outside your school"

type rule struct {
	// roles restricts the action to principals holding at least one of them;
	// empty means any authenticated principal.
	roles []string
	// skipTenant exempts the action from the school check, leaving the
	// decision entirely to check.
	skipTenant bool
	// check runs after the tenant check, for everyone including admins.
	check func(p Principal, r Record) error
}

var rules = map[Entity]map[Action]rule{
	EntitySchool: {
		// Schools are the tenant roots themselves; access is gated by the
		// view-schools permission, which only admins hold.
		ActionList:   {skipTenant: true},
		ActionRead:   {skipTenant: true},
		ActionCreate: {skipTenant: true},
		ActionUpdate: {skipTenant: true},
		ActionDelete: {skipTenant: true},
	},
	EntityUser: {
		ActionList:   {},
		ActionRead:   {},
		ActionCreate: {},
		ActionUpdate: {},
		ActionDelete: {check: denySelfDelete},
	},
	EntityCourse: {
		ActionList:   {},
		ActionRead:   {},
		ActionCreate: {},
		ActionUpdate: {},
		ActionDelete: {},
	},
	EntitySubject: {
		ActionList:   {},
		ActionRead:   {},
		ActionCreate: {},
		ActionUpdate: {},
		ActionDelete: {},
	},
	EntityEnrollment: {
		ActionList:   {},
		ActionRead:   {},
		ActionCreate: {},
		ActionUpdate: {},
		ActionDelete: {},
	},
	EntityGrade: {
		ActionList:   {check: teacherOwnsSubject},
		ActionRead:   {check: gradeReadable},
		ActionCreate: {check: teacherOwnsSubject},
		ActionUpdate: {check: teacherOwnsSubject},
		ActionDelete: {check: teacherOwnsSubject},
	},
	EntityReport: {
		ActionList: {
			roles: []string{user.RoleAdmin, user.RoleCoordinator, user.RoleTeacher},
		},
		ActionRead:   {skipTenant: true, check: reportReadable},
		ActionCreate: {roles: []string{user.RoleAdmin, user.RoleTeacher}},
		ActionMarkRead: {
			roles: []string{user.RoleAdmin, user.RoleCoordinator},
		},
		ActionDelete: {skipTenant: true, check: reportDeletable},
	},
	EntityNotification: {
		// Notifications are strictly personal; not even admins read or mark
		// another user's.
		ActionList:     {skipTenant: true, check: ownNotification},
		ActionRead:     {skipTenant: true, check: ownNotification},
		ActionMarkRead: {skipTenant: true, check: ownNotification},
	},
	EntityStatistics: {
		ActionList: {roles: []string{user.RoleAdmin}},
	},
}

// Allow decides whether the principal may perform the action on the entity
// given the target record's attributes. It returns nil to permit, or a
// *ForbiddenError explaining the denial. The role gate runs first, then the
// school check (admins exempt), then any role-specific overlay.
func Allow(p Principal, e Entity, a Action, r Record) error {
	rl, ok := rules[e][a]
	if !ok {
		return forbidden("no permissions to perform this action")
	}
	if len(rl.roles) > 0 && !p.HasAnyRole(rl.roles...) {
		return forbidden("no permissions to perform this action")
	}
	if !rl.skipTenant && !p.IsAdmin() {
		if r.SchoolID != 0 && r.SchoolID != p.SchoolID {
			return forbidden(msgOutsideSchool)
		}
		if r.BodySchoolID != 0 && r.BodySchoolID != p.SchoolID {
			return forbidden(msgOutsideSchool)
		}
	}
	if rl.check != nil {
		return rl.check(p, r)
	}
	return nil
}

// denySelfDelete applies to every role, admins included.
func denySelfDelete(p Principal, r Record) error {
	if r.TargetUserID == p.UserID {
		return forbidden("cannot delete own account")
	}
	return nil
}

// teacherOwnsSubject restricts teachers to grades of subjects assigned to
// them. Record.TeacherID is the subject's assigned teacher.
func teacherOwnsSubject(p Principal, r Record) error {
	if p.HasRole(user.RoleTeacher) && r.TeacherID != 0 && r.TeacherID != p.UserID {
		return forbidden("no permissions to manage grades for this subject")
	}
	return nil
}

// gradeReadable restricts students to their own grades on top of the subject
// ownership rule for teachers.
func gradeReadable(p Principal, r Record) error {
	if p.HasRole(user.RoleStudent) && r.OwnerID != p.UserID {
		return forbidden("no permissions to view this grade")
	}
	return teacherOwnsSubject(p, r)
}

// reportReadable allows admins, same-school coordinators and the authoring
// teacher.
func reportReadable(p Principal, r Record) error {
	switch {
	case p.IsAdmin():
		return nil
	case p.HasRole(user.RoleCoordinator) && r.SchoolID == p.SchoolID:
		return nil
	case r.TeacherID == p.UserID:
		return nil
	}
	return forbidden("no permissions to view this report")
}

func reportDeletable(p Principal, r Record) error {
	if p.IsAdmin() || r.TeacherID == p.UserID {
		return nil
	}
	return forbidden("no permissions to delete this report")
}

func ownNotification(p Principal, r Record) error {
	if r.OwnerID != 0 && r.OwnerID != p.UserID {
		return forbidden("no permissions to access this notification")
	}
	return nil
}
