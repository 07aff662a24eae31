package dummydb

import (
	"sort"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) query() []grade.Grade {
	grades := make([]grade.Grade, 0, len(repo.db.grades))
	for _, g := range repo.db.grades {
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades
}

func (repo *gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// uniqueness check and insert under the same lock
	for _, existing := range repo.db.grades {
		if existing.UserID == g.UserID && existing.SubjectID == g.SubjectID &&
			existing.Evaluation == g.Evaluation {
			return grade.Grade{}, grade.ErrDuplicate
		}
	}

	g.ID = repo.db.nextID()
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) GetGradeByID(id int) (grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return *g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

// subjectTeacherID must be called with a lock held.
func (db *DB) subjectTeacherID(subjectID int) int {
	if sub, ok := db.subjects[subjectID]; ok {
		return sub.TeacherID
	}
	return 0
}

func (repo *gradeRepository) FilterGrades(filter grade.QueryFilter, scope core.Scope, page core.Page) ([]grade.Grade, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matches := func(g grade.Grade) bool {
		if scope.SchoolID != nil && g.SchoolID != *scope.SchoolID {
			return false
		}
		if scope.TeacherID != nil && repo.db.subjectTeacherID(g.SubjectID) != *scope.TeacherID {
			return false
		}
		if scope.UserID != nil && g.UserID != *scope.UserID {
			return false
		}
		if filter.UserID != nil && g.UserID != *filter.UserID {
			return false
		}
		if filter.SubjectID != nil && g.SubjectID != *filter.SubjectID {
			return false
		}
		if filter.Evaluation != nil && g.Evaluation != *filter.Evaluation {
			return false
		}
		if filter.AcademicYear != "" {
			sub, ok := repo.db.subjects[g.SubjectID]
			if !ok {
				return false
			}
			crs, ok := repo.db.courses[sub.CourseID]
			if !ok || crs.AcademicYear != filter.AcademicYear {
				return false
			}
		}
		return true
	}

	var grades []grade.Grade
	for _, g := range repo.query() {
		if matches(g) {
			grades = append(grades, g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if !grades[i].GradeDate.Equal(grades[j].GradeDate) {
			return grades[i].GradeDate.After(grades[j].GradeDate)
		}
		return grades[i].ID > grades[j].ID
	})

	total := len(grades)
	start, end := paginate(total, page.Offset(), page.Size)
	return grades[start:end], total, nil
}

func (repo *gradeRepository) GradesByStudent(userID int) ([]grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var grades []grade.Grade
	for _, g := range repo.query() {
		if g.UserID == userID {
			grades = append(grades, g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if grades[i].Evaluation != grades[j].Evaluation {
			return grades[i].Evaluation < grades[j].Evaluation
		}
		return grades[i].SubjectID < grades[j].SubjectID
	})
	return grades, nil
}

func (repo *gradeRepository) GradesBySubject(subjectID int) ([]grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var grades []grade.Grade
	for _, g := range repo.query() {
		if g.SubjectID == subjectID {
			grades = append(grades, g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if grades[i].Evaluation != grades[j].Evaluation {
			return grades[i].Evaluation < grades[j].Evaluation
		}
		return grades[i].UserID < grades[j].UserID
	})
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(g grade.Grade) (grade.Grade, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.grades[g.ID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	for _, existing := range repo.db.grades {
		if existing.ID != g.ID && existing.UserID == g.UserID &&
			existing.SubjectID == g.SubjectID && existing.Evaluation == g.Evaluation {
			return grade.Grade{}, grade.ErrDuplicate
		}
	}
	g.CreatedAt = orig.CreatedAt
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) DeleteGradeByID(id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.grades[id]; !ok {
		return grade.ErrNotFound
	}
	delete(repo.db.grades, id)
	return nil
}
