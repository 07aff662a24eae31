package stats

import (
	"time"

	"github.com/colegiohq/backend/core"
)

// DashboardStats are the role-scoped counters on the landing dashboard.
type DashboardStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalCourses  int `json:"totalCourses"`
	TotalSubjects int `json:"totalSubjects"`
	TotalGrades   int `json:"totalGrades"`
}

// SchoolSummary aggregates per-school counters for the global statistics.
type SchoolSummary struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	FullName string `json:"full_name" db:"full_name"`
	Users    int    `json:"users" db:"users"`
	Courses  int    `json:"courses" db:"courses"`
	Subjects int    `json:"subjects" db:"subjects"`
}

// Statistics is the platform-wide aggregate, admin-only.
type Statistics struct {
	Totals struct {
		Users    int     `json:"users"`
		Courses  int     `json:"courses"`
		Subjects int     `json:"subjects"`
		Grades   int     `json:"grades"`
		AvgGrade float64 `json:"avg_grade"`
	} `json:"totals"`
	Roles   map[string]int `json:"roles"`
	Courses struct {
		Active    int `json:"active"`
		Inactive  int `json:"inactive"`
		Completed int `json:"completed"`
	} `json:"courses"`
	Schools     []SchoolSummary `json:"schools"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type (
	Repository interface {
		// CountEntities counts users, courses, subjects and grades under the
		// tenant scope.
		CountEntities(scope core.Scope) (DashboardStats, error)
		// TeacherDashboard counts the students of the teacher's school, and
		// the distinct courses, subjects and grades reached through subjects
		// assigned to the teacher.
		TeacherDashboard(teacherID, schoolID int) (DashboardStats, error)
		// StudentDashboard counts the student's enrollments, the distinct
		// subjects of the enrolled courses and the student's own grades.
		StudentDashboard(userID int) (DashboardStats, error)
		// CoordinatorDashboard counts the courses coordinated by the user and
		// the students, subjects and grades reached through them.
		CoordinatorDashboard(coordID, schoolID int) (DashboardStats, error)
		GlobalStatistics() (Statistics, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Dashboard(scope core.Scope) (DashboardStats, error) {
	return svc.repo.CountEntities(scope)
}

func (svc *Service) TeacherDashboard(teacherID, schoolID int) (DashboardStats, error) {
	return svc.repo.TeacherDashboard(teacherID, schoolID)
}

func (svc *Service) StudentDashboard(userID int) (DashboardStats, error) {
	return svc.repo.StudentDashboard(userID)
}

func (svc *Service) CoordinatorDashboard(coordID, schoolID int) (DashboardStats, error) {
	return svc.repo.CoordinatorDashboard(coordID, schoolID)
}

func (svc *Service) Global() (Statistics, error) {
	stats, err := svc.repo.GlobalStatistics()
	if err != nil {
		return Statistics{}, err
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}
