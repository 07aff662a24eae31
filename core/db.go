package core

// Scope is the effective tenant restriction a repository must AND into a
// listing query before any user-supplied filter. Nil fields do not restrict.
// It is produced by the policy package from the requesting principal; user
// filters can only narrow the scoped set, never widen it.
type Scope struct {
	SchoolID  *int // non-admin: rows of the principal's school only
	TeacherID *int // teacher on subjects/grades: the subject's assigned teacher
	UserID    *int // student on grades/enrollments, notification owner
}

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// LastPage returns the last page number for a total row count.
func (p Page) LastPage(total int) int {
	if total == 0 || p.Size == 0 {
		return 1
	}
	last := total / p.Size
	if total%p.Size > 0 {
		last++
	}
	return last
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// IntPtr is a convenience for building Scope values.
func IntPtr(i int) *int { return &i }
