package dummydb

import (
	"sort"
	"strings"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) query() []school.School {
	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools
}

func (repo *schoolRepository) CheckEmailUniqueness(email string, excludedSchools ...school.School) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := func(sch school.School) bool {
		for _, excl := range excludedSchools {
			if excl.ID == sch.ID {
				return true
			}
		}
		return false
	}
	for _, sch := range repo.query() {
		if sch.Email == email && !excluded(sch) {
			return school.ErrEmailExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch.ID = repo.db.nextID()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(id int) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) FilterSchools(filter school.QueryFilter, page core.Page) ([]school.School, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	matches := func(sch school.School) bool {
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(sch.Name), kw) &&
				!strings.Contains(strings.ToLower(sch.FullName), kw) &&
				!strings.Contains(strings.ToLower(sch.Email), kw) {
				return false
			}
		}
		if filter.HasPrimary != nil && sch.HasPrimary != *filter.HasPrimary {
			return false
		}
		if filter.HasESO != nil && sch.HasESO != *filter.HasESO {
			return false
		}
		if filter.HasBachillerato != nil && sch.HasBachillerato != *filter.HasBachillerato {
			return false
		}
		if filter.HasFP != nil && sch.HasFP != *filter.HasFP {
			return false
		}
		return true
	}

	var schools []school.School
	for _, sch := range repo.query() {
		if matches(sch) {
			schools = append(schools, sch)
		}
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })

	total := len(schools)
	start, end := paginate(total, page.Offset(), page.Size)
	return schools[start:end], total, nil
}

func (repo *schoolRepository) UpdateSchool(sch school.School, us school.UpdateSchool) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.schools[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	orig.Name = sch.Name
	orig.FullName = sch.FullName
	orig.Address = sch.Address
	orig.Phone = sch.Phone
	orig.Email = sch.Email
	if sch.Logo != "" {
		orig.Logo = sch.Logo
	}
	orig.Website = sch.Website
	if us.HasPrimary != nil {
		orig.HasPrimary = *us.HasPrimary
	}
	if us.HasESO != nil {
		orig.HasESO = *us.HasESO
	}
	if us.HasBachillerato != nil {
		orig.HasBachillerato = *us.HasBachillerato
	}
	if us.HasFP != nil {
		orig.HasFP = *us.HasFP
	}
	if us.MaxStudents != nil {
		orig.MaxStudents = *us.MaxStudents
	}
	orig.UpdatedAt = sch.UpdatedAt

	return *orig, nil
}

func (repo *schoolRepository) CountSchoolUsers(id int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.countSchoolUsers(id), nil
}

func (repo *schoolRepository) DeleteSchoolByID(id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}
	// re-check the guard under the write lock
	if repo.db.countSchoolUsers(id) > 0 {
		return core.NewConflictError("cannot delete the school because it has associated users")
	}
	delete(repo.db.schools, id)
	return nil
}
