package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/course"
	"github.com/kymanzi/darasa/core/user"
)

// EmailServiceMock records messages instead of sending them.
type EmailServiceMock struct {
	mu       sync.Mutex
	Messages []*core.EmailMessage
}

var _ core.EmailService = (*EmailServiceMock)(nil)

func (svc *EmailServiceMock) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.Messages = append(svc.Messages, messages...)
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CourseSeeder is implemented by test repositories that can take fixtures
// directly.
type CourseSeeder interface {
	SeedCourse(crs course.Course) course.Course
	SeedEnrollment(enr course.Enrollment) course.Enrollment
}

func CreateCourse(t *testing.T, seeder CourseSeeder, instructorID, title string, status course.Status) course.Course {
	t.Helper()

	now := time.Now().UTC()
	return seeder.SeedCourse(course.Course{
		ID:           uuid.New().String(),
		InstructorID: instructorID,
		Title:        title,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func Enroll(t *testing.T, seeder CourseSeeder, courseID, learnerID string, status course.EnrollmentStatus) course.Enrollment {
	t.Helper()

	return seeder.SeedEnrollment(course.Enrollment{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		LearnerID: learnerID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	courseID, title string,
	dueDate time.Time,
	weight int,
	allowLate, allowResubmission bool,
	status assignment.Status,
) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	a := assignment.Assignment{
		ID:                uuid.New().String(),
		CourseID:          courseID,
		Title:             title,
		DueDate:           dueDate.UTC(),
		Weight:            weight,
		AllowLate:         allowLate,
		AllowResubmission: allowResubmission,
		Status:            assignment.StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	a, err := repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	// fixtures may start beyond draft
	if status != assignment.StatusDraft {
		if _, err := repo.UpdateAssignmentStatus(context.Background(), a.ID, assignment.StatusDraft, assignment.StatusPublished); err != nil {
			t.Fatalf("CreateAssignment() failed: %v", err)
		}
		a.Status = assignment.StatusPublished
		if status == assignment.StatusClosed {
			if _, err := repo.UpdateAssignmentStatus(context.Background(), a.ID, assignment.StatusPublished, assignment.StatusClosed); err != nil {
				t.Fatalf("CreateAssignment() failed: %v", err)
			}
			a.Status = assignment.StatusClosed
		}
	}
	return a
}
