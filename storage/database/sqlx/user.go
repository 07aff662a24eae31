package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/user"
)

type userRow struct {
	ID           int          `db:"id"`
	Name         string       `db:"name"`
	Surname      string       `db:"surname"`
	Username     string       `db:"username"`
	Email        string       `db:"email"`
	Phone        string       `db:"phone"`
	SchoolID     int          `db:"school_id"`
	Role         string       `db:"role"`
	Photo        string       `db:"photo"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Surname:      r.Surname,
		Username:     r.Username,
		Email:        r.Email,
		Phone:        r.Phone,
		SchoolID:     r.SchoolID,
		Role:         r.Role,
		Photo:        r.Photo,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

var userOrdering = core.DBOrdering{Field: "created_at"}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	var args queryArgs
	q := `SELECT username, email FROM users WHERE (username = ` + args.bind(username) +
		` OR email = ` + args.bind(email) + `)`
	if len(excludedUsers) > 0 {
		excl := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			excl = append(excl, args.bind(usr.ID))
		}
		q += ` AND id NOT IN (` + strings.Join(excl, ", ") + `)`
	}

	rows, err := repo.db.Query(q, args...)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var uname, mail string
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if uname == username {
			return user.ErrUsernameExists
		}
		if mail == email {
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(rows.Err(), "checking username uniqueness")
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	q := `INSERT INTO users (name, surname, username, email, phone, school_id, role, photo, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.db.QueryRow(
		q, usr.Name, usr.Surname, usr.Username, usr.Email, usr.Phone, usr.SchoolID,
		usr.Role, usr.Photo, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) getUser(where string, args ...interface{}) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, `SELECT * FROM users WHERE `+where, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	return repo.getUser(`id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getUser(`username = $1 OR email = $1`, username)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter, scope core.Scope, page core.Page) ([]user.User, int, error) {
	var args queryArgs
	where := []string{"TRUE"}

	if scope.SchoolID != nil {
		where = append(where, `school_id = `+args.bind(*scope.SchoolID))
	}
	if filter.Search != "" {
		kw := args.bind("%" + filter.Search + "%")
		where = append(where, `(name ILIKE `+kw+` OR surname ILIKE `+kw+` OR username ILIKE `+kw+` OR email ILIKE `+kw+`)`)
	}
	if filter.Role != "" {
		where = append(where, `role = `+args.bind(filter.Role))
	}
	if filter.SchoolID != nil {
		where = append(where, `school_id = `+args.bind(*filter.SchoolID))
	}
	if filter.IsActive != nil {
		where = append(where, `is_active = `+args.bind(*filter.IsActive))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM users WHERE `+cond, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	q := `SELECT * FROM users WHERE ` + cond + ` ORDER BY ` + userOrdering.String() + ` LIMIT ` +
		args.bind(page.Size) + ` OFFSET ` + args.bind(page.Offset())
	var rows []userRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, total, nil
}

func (repo *userRepository) GetUsersBySchoolAndRole(schoolID int, role string) ([]user.User, error) {
	var rows []userRow
	q := `SELECT * FROM users WHERE school_id = $1 AND role = $2 ORDER BY name, surname`
	if err := repo.db.Select(&rows, q, schoolID, role); err != nil {
		return nil, errors.Wrap(err, "getting users by school and role")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) CountUsersBySchool(schoolID int) (int, error) {
	var count int
	if err := repo.db.Get(&count, `SELECT COUNT(*) FROM users WHERE school_id = $1`, schoolID); err != nil {
		return 0, errors.Wrap(err, "counting school users")
	}
	return count, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
	}

	// only save set fields
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.SchoolID != 0 {
		orig.SchoolID = usr.SchoolID
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Surname != "" {
		orig.Surname = usr.Surname
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Phone != "" {
		orig.Phone = usr.Phone
	}
	if usr.Photo != "" {
		orig.Photo = usr.Photo
	}
	orig.UpdatedAt = usr.UpdatedAt

	var lastLogin sql.NullTime
	if !orig.LastLogin.IsZero() {
		lastLogin = sql.NullTime{Time: orig.LastLogin, Valid: true}
	}
	q := `UPDATE users SET name = $1, surname = $2, username = $3, email = $4, phone = $5, school_id = $6,
		role = $7, photo = $8, is_active = $9, password_hash = $10, updated_at = $11, last_login = $12
		WHERE id = $13`
	_, err = repo.db.Exec(
		q, orig.Name, orig.Surname, orig.Username, orig.Email, orig.Phone, orig.SchoolID,
		orig.Role, orig.Photo, orig.IsActive, orig.PasswordHash, orig.UpdatedAt, lastLogin, orig.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo *userRepository) DeleteUserByID(id int) error {
	res, err := repo.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
