package inmemdb

import (
	"sync"

	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/course"
	"github.com/kymanzi/darasa/core/submission"
	"github.com/kymanzi/darasa/core/user"
)

// DB is a mutex-guarded map store used by tests and local development. It
// mirrors the semantics the psql adapter relies on, most notably the unique
// (assignment, learner) submission constraint and conditional status writes.
type (
	DB struct {
		user       *userTable
		course     *courseTable
		enrollment *enrollmentTable
		assignment *assignmentTable
		submission *submissionTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	courseTable struct {
		table map[string]*course.Course
		mutex sync.RWMutex
	}

	enrollmentTable struct {
		table map[string]*course.Enrollment
		mutex sync.RWMutex
	}

	assignmentTable struct {
		table map[string]*assignment.Assignment
		mutex sync.RWMutex
	}

	submissionTable struct {
		table map[string]*submission.Submission
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		enrollment: &enrollmentTable{table: make(map[string]*course.Enrollment)},
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
	}
	return db, nil
}
