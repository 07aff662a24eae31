package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/school"
)

type schoolRow struct {
	ID              int       `db:"id"`
	Name            string    `db:"name"`
	FullName        string    `db:"full_name"`
	Address         string    `db:"address"`
	Phone           string    `db:"phone"`
	Email           string    `db:"email"`
	Logo            string    `db:"logo"`
	HasPrimary      bool      `db:"has_primary"`
	HasESO          bool      `db:"has_eso"`
	HasBachillerato bool      `db:"has_bachillerato"`
	HasFP           bool      `db:"has_fp"`
	MaxStudents     int       `db:"max_students"`
	Website         string    `db:"website"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r schoolRow) toSchool() school.School {
	return school.School{
		ID:              r.ID,
		Name:            r.Name,
		FullName:        r.FullName,
		Address:         r.Address,
		Phone:           r.Phone,
		Email:           r.Email,
		Logo:            r.Logo,
		HasPrimary:      r.HasPrimary,
		HasESO:          r.HasESO,
		HasBachillerato: r.HasBachillerato,
		HasFP:           r.HasFP,
		MaxStudents:     r.MaxStudents,
		Website:         r.Website,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

var schoolOrdering = core.DBOrdering{Field: "name", Ascending: true}

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CheckEmailUniqueness(email string, excludedSchools ...school.School) error {
	var args queryArgs
	q := `SELECT COUNT(*) FROM schools WHERE email = ` + args.bind(email)
	if len(excludedSchools) > 0 {
		excl := make([]string, 0, len(excludedSchools))
		for _, sch := range excludedSchools {
			excl = append(excl, args.bind(sch.ID))
		}
		q += ` AND id NOT IN (` + strings.Join(excl, ", ") + `)`
	}

	var count int
	if err := repo.db.Get(&count, q, args...); err != nil {
		return errors.Wrap(err, "checking school email uniqueness")
	}
	if count > 0 {
		return school.ErrEmailExists
	}
	return nil
}

func (repo *schoolRepository) CreateSchool(sch school.School) (school.School, error) {
	q := `INSERT INTO schools (name, full_name, address, phone, email, logo, has_primary, has_eso, has_bachillerato, has_fp, max_students, website, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := repo.db.QueryRow(
		q, sch.Name, sch.FullName, sch.Address, sch.Phone, sch.Email, sch.Logo,
		sch.HasPrimary, sch.HasESO, sch.HasBachillerato, sch.HasFP, sch.MaxStudents,
		sch.Website, sch.CreatedAt, sch.UpdatedAt,
	).Scan(&sch.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return school.School{}, school.ErrEmailExists
		}
		return school.School{}, errors.Wrap(err, "creating school")
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(id int) (school.School, error) {
	var row schoolRow
	if err := repo.db.Get(&row, `SELECT * FROM schools WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, errors.Wrap(err, "getting school")
	}
	return row.toSchool(), nil
}

func (repo *schoolRepository) FilterSchools(filter school.QueryFilter, page core.Page) ([]school.School, int, error) {
	var args queryArgs
	where := []string{"TRUE"}

	if filter.Search != "" {
		kw := args.bind("%" + filter.Search + "%")
		where = append(where, `(name ILIKE `+kw+` OR full_name ILIKE `+kw+` OR email ILIKE `+kw+`)`)
	}
	if filter.HasPrimary != nil {
		where = append(where, `has_primary = `+args.bind(*filter.HasPrimary))
	}
	if filter.HasESO != nil {
		where = append(where, `has_eso = `+args.bind(*filter.HasESO))
	}
	if filter.HasBachillerato != nil {
		where = append(where, `has_bachillerato = `+args.bind(*filter.HasBachillerato))
	}
	if filter.HasFP != nil {
		where = append(where, `has_fp = `+args.bind(*filter.HasFP))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM schools WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting schools")
	}

	q := `SELECT * FROM schools WHERE ` + cond + ` ORDER BY ` + schoolOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []schoolRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering schools")
	}

	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.toSchool())
	}
	return schools, total, nil
}

func (repo *schoolRepository) UpdateSchool(sch school.School, us school.UpdateSchool) (school.School, error) {
	orig, err := repo.GetSchoolByID(sch.ID)
	if err != nil {
		return school.School{}, err
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

	q := `UPDATE schools SET name = $1, full_name = $2, address = $3, phone = $4, email = $5, logo = $6,
		has_primary = $7, has_eso = $8, has_bachillerato = $9, has_fp = $10, max_students = $11,
		website = $12, updated_at = $13
		WHERE id = $14`
	_, err = repo.db.Exec(
		q, orig.Name, orig.FullName, orig.Address, orig.Phone, orig.Email, orig.Logo,
		orig.HasPrimary, orig.HasESO, orig.HasBachillerato, orig.HasFP, orig.MaxStudents,
		orig.Website, orig.UpdatedAt, orig.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return school.School{}, school.ErrEmailExists
		}
		return school.School{}, errors.Wrap(err, "updating school")
	}
	return orig, nil
}

func (repo *schoolRepository) CountSchoolUsers(id int) (int, error) {
	var count int
	if err := repo.db.Get(&count, `SELECT COUNT(*) FROM users WHERE school_id = $1`, id); err != nil {
		return 0, errors.Wrap(err, "counting school users")
	}
	return count, nil
}

// DeleteSchoolByID re-checks the user count inside the transaction so the
// delete guard holds under concurrent user creation.
func (repo *schoolRepository) DeleteSchoolByID(id int) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err = tx.Get(&count, `SELECT COUNT(*) FROM users WHERE school_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	if count > 0 {
		return core.NewConflictError("cannot delete the school because it has associated users")
	}

	res, err := tx.Exec(`DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return errors.Wrap(tx.Commit(), "deleting school")
}
