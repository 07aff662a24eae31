package dummydb

import (
	"sort"
	"strings"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) query() []subject.Subject {
	subjects := make([]subject.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects
}

func (repo *subjectRepository) CreateSubject(sub subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub.ID = repo.db.nextID()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) GetSubjectByID(id int) (subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) FilterSubjects(filter subject.QueryFilter, scope core.Scope, page core.Page) ([]subject.Subject, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matches := func(sub subject.Subject) bool {
		if scope.SchoolID != nil && sub.SchoolID != *scope.SchoolID {
			return false
		}
		if scope.TeacherID != nil && sub.TeacherID != *scope.TeacherID {
			return false
		}
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(sub.Name), kw) &&
				!strings.Contains(strings.ToLower(sub.Description), kw) {
				return false
			}
		}
		if filter.CourseID != nil && sub.CourseID != *filter.CourseID {
			return false
		}
		if filter.TeacherID != nil && sub.TeacherID != *filter.TeacherID {
			return false
		}
		if filter.Status != "" && sub.Status != filter.Status {
			return false
		}
		return true
	}

	var subjects []subject.Subject
	for _, sub := range repo.query() {
		if matches(sub) {
			subjects = append(subjects, sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })

	total := len(subjects)
	start, end := paginate(total, page.Offset(), page.Size)
	return subjects[start:end], total, nil
}

func (repo *subjectRepository) UpdateSubject(sub subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.subjects[sub.ID]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	sub.CreatedAt = orig.CreatedAt
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) CountSubjectGrades(id int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.countSubjectGrades(id), nil
}

func (repo *subjectRepository) DeleteSubjectByID(id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subjects[id]; !ok {
		return subject.ErrNotFound
	}
	// re-check the guard under the write lock
	if repo.db.countSubjectGrades(id) > 0 {
		return core.NewConflictError("cannot delete the subject because it has recorded grades")
	}
	delete(repo.db.subjects, id)
	return nil
}

// countSubjectGrades must be called with a lock held.
func (db *DB) countSubjectGrades(subjectID int) int {
	count := 0
	for _, g := range db.grades {
		if g.SubjectID == subjectID {
			count++
		}
	}
	return count
}
