package dummydb

import (
	"math"
	"sort"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/stats"
)

type statsRepository struct {
	db *DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *DB) stats.Repository {
	return &statsRepository{db: db}
}

func (repo *statsRepository) CountEntities(scope core.Scope) (stats.DashboardStats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	inScope := func(schoolID int) bool {
		return scope.SchoolID == nil || schoolID == *scope.SchoolID
	}

	var ds stats.DashboardStats
	for _, u := range repo.db.users {
		if inScope(u.SchoolID) {
			ds.TotalUsers++
		}
	}
	for _, crs := range repo.db.courses {
		if inScope(crs.SchoolID) {
			ds.TotalCourses++
		}
	}
	for _, sub := range repo.db.subjects {
		if inScope(sub.SchoolID) {
			ds.TotalSubjects++
		}
	}
	for _, g := range repo.db.grades {
		if inScope(g.SchoolID) {
			ds.TotalGrades++
		}
	}
	return ds, nil
}

func (repo *statsRepository) TeacherDashboard(teacherID, schoolID int) (stats.DashboardStats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ds stats.DashboardStats
	for _, u := range repo.db.users {
		if u.SchoolID == schoolID && u.IsStudent() {
			ds.TotalUsers++
		}
	}
	courses := make(map[int]bool)
	for _, sub := range repo.db.subjects {
		if sub.TeacherID == teacherID {
			ds.TotalSubjects++
			courses[sub.CourseID] = true
		}
	}
	ds.TotalCourses = len(courses)
	for _, g := range repo.db.grades {
		if repo.db.subjectTeacherID(g.SubjectID) == teacherID {
			ds.TotalGrades++
		}
	}
	return ds, nil
}

func (repo *statsRepository) StudentDashboard(userID int) (stats.DashboardStats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ds := stats.DashboardStats{TotalUsers: 1}
	courses := make(map[int]bool)
	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID {
			ds.TotalCourses++
			courses[enr.CourseID] = true
		}
	}
	subjects := make(map[int]bool)
	for _, sub := range repo.db.subjects {
		if courses[sub.CourseID] {
			subjects[sub.ID] = true
		}
	}
	ds.TotalSubjects = len(subjects)
	for _, g := range repo.db.grades {
		if g.UserID == userID {
			ds.TotalGrades++
		}
	}
	return ds, nil
}

func (repo *statsRepository) CoordinatorDashboard(coordID, schoolID int) (stats.DashboardStats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ds stats.DashboardStats
	courses := make(map[int]bool)
	for _, crs := range repo.db.courses {
		if crs.CoordID == coordID {
			ds.TotalCourses++
			courses[crs.ID] = true
		}
	}
	students := make(map[int]bool)
	for _, enr := range repo.db.enrollments {
		if courses[enr.CourseID] {
			students[enr.UserID] = true
		}
	}
	ds.TotalUsers = len(students)
	subjects := make(map[int]bool)
	for _, sub := range repo.db.subjects {
		if courses[sub.CourseID] {
			ds.TotalSubjects++
			subjects[sub.ID] = true
		}
	}
	for _, g := range repo.db.grades {
		if subjects[g.SubjectID] {
			ds.TotalGrades++
		}
	}
	return ds, nil
}

func (repo *statsRepository) GlobalStatistics() (stats.Statistics, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var st stats.Statistics
	st.Roles = make(map[string]int)

	st.Totals.Users = len(repo.db.users)
	st.Totals.Courses = len(repo.db.courses)
	st.Totals.Subjects = len(repo.db.subjects)
	st.Totals.Grades = len(repo.db.grades)

	var sum float64
	for _, g := range repo.db.grades {
		sum += g.Grade
	}
	if len(repo.db.grades) > 0 {
		st.Totals.AvgGrade = math.Round(sum/float64(len(repo.db.grades))*100) / 100
	}

	for _, u := range repo.db.users {
		st.Roles[u.Role]++
	}

	for _, crs := range repo.db.courses {
		switch crs.Status {
		case course.StatusActive:
			st.Courses.Active++
		case course.StatusInactive:
			st.Courses.Inactive++
		case course.StatusCompleted:
			st.Courses.Completed++
		}
	}

	for _, sch := range repo.db.schools {
		summary := stats.SchoolSummary{ID: sch.ID, Name: sch.Name, FullName: sch.FullName}
		for _, u := range repo.db.users {
			if u.SchoolID == sch.ID {
				summary.Users++
			}
		}
		for _, crs := range repo.db.courses {
			if crs.SchoolID == sch.ID {
				summary.Courses++
			}
		}
		for _, sub := range repo.db.subjects {
			if sub.SchoolID == sch.ID {
				summary.Subjects++
			}
		}
		st.Schools = append(st.Schools, summary)
	}
	sort.Slice(st.Schools, func(i, j int) bool { return st.Schools[i].Name < st.Schools[j].Name })
	return st, nil
}
