// Package dummydb implements the storage repositories in memory, for tests
// and local hacking.
package dummydb

import (
	"sync"

	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/enrollment"
	"github.com/colegiohq/backend/core/grade"
	"github.com/colegiohq/backend/core/notification"
	"github.com/colegiohq/backend/core/report"
	"github.com/colegiohq/backend/core/school"
	"github.com/colegiohq/backend/core/subject"
	"github.com/colegiohq/backend/core/user"
)

// DB holds every table behind one lock so cross-table checks (delete guards,
// dashboard counts) see a consistent snapshot.
type DB struct {
	mu     sync.RWMutex
	lastID int

	schools       map[int]*school.School
	users         map[int]*user.User
	courses       map[int]*course.Course
	subjects      map[int]*subject.Subject
	enrollments   map[int]*enrollment.Enrollment
	grades        map[int]*grade.Grade
	reports       map[int]*report.Report
	notifications map[int]*notification.Notification
}

func Open() (*DB, error) {
	db := &DB{
		schools:       make(map[int]*school.School),
		users:         make(map[int]*user.User),
		courses:       make(map[int]*course.Course),
		subjects:      make(map[int]*subject.Subject),
		enrollments:   make(map[int]*enrollment.Enrollment),
		grades:        make(map[int]*grade.Grade),
		reports:       make(map[int]*report.Report),
		notifications: make(map[int]*notification.Notification),
	}
	return db, nil
}

// nextID must be called with the write lock held.
func (db *DB) nextID() int {
	db.lastID++
	return db.lastID
}

func paginate(total, offset, size int) (int, int) {
	if offset > total {
		offset = total
	}
	end := total
	if size > 0 && offset+size < total {
		end = offset + size
	}
	return offset, end
}
