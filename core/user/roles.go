package user

// Roles form a closed set; each maps to a fixed permission set seeded at
// process start. There is no runtime mutation path.
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

// Permissions
const (
	PermViewSchools = "view schools"

	PermViewUsers   = "view users"
	PermCreateUsers = "create users"
	PermEditUsers   = "edit users"
	PermDeleteUsers = "delete users"

	PermViewCourses   = "view courses"
	PermCreateCourses = "create courses"
	PermEditCourses   = "edit courses"
	PermDeleteCourses = "delete courses"

	PermViewSubjects         = "view subjects"
	PermCreateSubjects       = "create subjects"
	PermEditSubjects         = "edit subjects"
	PermDeleteSubjects       = "delete subjects"
	PermAssignTeacherSubject = "assign teacher subjects"

	PermViewGrades   = "view grades"
	PermCreateGrades = "create grades"
	PermEditGrades   = "edit grades"
	PermDeleteGrades = "delete grades"

	PermViewEnrollments   = "view enrollments"
	PermCreateEnrollments = "create enrollments"
	PermEditEnrollments   = "edit enrollments"
	PermDeleteEnrollments = "delete enrollments"
	PermEnrollStudents    = "enroll students"

	PermViewReports = "view reports"

	PermViewOwnGrades = "view own grades"
	PermViewDashboard = "view dashboard"

	PermViewStatistics = "view statistics"
)

var (
	AllRoles = []string{RoleAdmin, RoleCoordinator, RoleTeacher, RoleStudent}

	allPermissions = []string{
		PermViewSchools,
		PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers,
		PermViewCourses, PermCreateCourses, PermEditCourses, PermDeleteCourses,
		PermViewSubjects, PermCreateSubjects, PermEditSubjects, PermDeleteSubjects, PermAssignTeacherSubject,
		PermViewGrades, PermCreateGrades, PermEditGrades, PermDeleteGrades,
		PermViewEnrollments, PermCreateEnrollments, PermEditEnrollments, PermDeleteEnrollments, PermEnrollStudents,
		PermViewReports,
		PermViewOwnGrades, PermViewDashboard,
		PermViewStatistics,
	}

	rolePermissions = map[string][]string{
		RoleAdmin: allPermissions,
		RoleCoordinator: {
			PermViewUsers, PermCreateUsers, PermEditUsers,
			PermViewCourses, PermCreateCourses, PermEditCourses, PermDeleteCourses,
			PermEnrollStudents,
			PermViewSubjects, PermCreateSubjects, PermEditSubjects, PermDeleteSubjects, PermAssignTeacherSubject,
			PermViewGrades,
			PermViewEnrollments, PermCreateEnrollments, PermEditEnrollments, PermDeleteEnrollments,
			PermViewReports,
			PermViewDashboard,
		},
		RoleTeacher: {
			PermViewUsers,
			PermViewCourses,
			PermViewSubjects,
			PermViewGrades, PermCreateGrades, PermEditGrades,
			PermViewEnrollments,
			PermViewReports,
			PermViewDashboard,
		},
		RoleStudent: {
			PermViewOwnGrades,
			PermViewDashboard,
		},
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionsFor resolves the fixed permission set derived from the given roles.
func PermissionsFor(roles ...string) []string {
	seen := make(map[string]struct{})
	perms := make([]string, 0)
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	return perms
}
