package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/course"
	inmemdb "github.com/kymanzi/darasa/storage/database/inmem"
	testutil "github.com/kymanzi/darasa/tests"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*assignment.Service, assignment.Repository, *inmemdb.DB) {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	repo := inmemdb.NewAssignmentRepository(db)
	svc := assignment.NewService(nil, repo, inmemdb.NewCourseRepository(db), core.FixedClock(now))
	return svc, repo, db
}

func seedCourse(t *testing.T, db *inmemdb.DB, status course.Status) course.Course {
	t.Helper()
	return testutil.CreateCourse(t, inmemdb.NewCourseRepository(db), "instructor-id", "Intro to Go", status)
}

func TestServiceCreate(t *testing.T) {
	svc, _, db := setup(t)
	ctx := context.Background()
	crs := seedCourse(t, db, course.StatusDraft)

	a, err := svc.Create(ctx, assignment.NewAssignment{
		CourseID: crs.ID,
		Title:    "Worksheet 1",
		DueDate:  now.Add(48 * time.Hour),
		Weight:   30,
	})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusDraft, a.Status)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, crs.ID, a.CourseID)

	t.Run("archived course rejected", func(t *testing.T) {
		archived := seedCourse(t, db, course.StatusArchived)
		_, err := svc.Create(ctx, assignment.NewAssignment{
			CourseID: archived.ID,
			Title:    "Worksheet 2",
			DueDate:  now.Add(48 * time.Hour),
		})
		assert.Equal(t, assignment.ErrCourseNotActive, err)
	})
}

func TestServicePublish(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusPublished)
		a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(time.Hour), 20, false, false, assignment.StatusDraft)

		published, err := svc.Publish(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, assignment.StatusPublished, published.Status)

		stored, err := repo.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, assignment.StatusPublished, stored.Status)
	})

	t.Run("already published", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusPublished)
		a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(time.Hour), 20, false, false, assignment.StatusPublished)

		_, err := svc.Publish(ctx, a.ID)
		assert.Equal(t, assignment.ErrInvalidStatusTransition, err)
	})

	t.Run("missing title", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusPublished)
		a := testutil.CreateAssignment(t, repo, crs.ID, "", now.Add(time.Hour), 20, false, false, assignment.StatusDraft)

		_, err := svc.Publish(ctx, a.ID)
		assert.Equal(t, assignment.ErrMissingTitle, err)
	})

	t.Run("past due date", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusPublished)
		a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(-time.Hour), 20, false, false, assignment.StatusDraft)

		_, err := svc.Publish(ctx, a.ID)
		assert.Equal(t, assignment.ErrPastDueDateOnPublish, err)
	})

	t.Run("course not published", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusDraft)
		a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(time.Hour), 20, false, false, assignment.StatusDraft)

		_, err := svc.Publish(ctx, a.ID)
		assert.Equal(t, assignment.ErrCourseNotPublished, err)
	})
}

func TestServiceClose(t *testing.T) {
	ctx := context.Background()
	svc, repo, db := setup(t)
	crs := seedCourse(t, db, course.StatusPublished)

	a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(time.Hour), 20, false, false, assignment.StatusPublished)
	closed, err := svc.Close(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusClosed, closed.Status)

	_, err = svc.Close(ctx, a.ID)
	assert.Equal(t, assignment.ErrInvalidStatusTransition, err)

	draft := testutil.CreateAssignment(t, repo, crs.ID, "Draft", now.Add(time.Hour), 20, false, false, assignment.StatusDraft)
	_, err = svc.Close(ctx, draft.ID)
	assert.Equal(t, assignment.ErrInvalidStatusTransition, err)
}

func TestServiceAutoCloseIfExpired(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		dueDate    time.Time
		allowLate  bool
		status     assignment.Status
		wantStatus assignment.Status
	}{
		{name: "expired without late policy closes", dueDate: now.Add(-time.Hour), status: assignment.StatusPublished, wantStatus: assignment.StatusClosed},
		{name: "expired with late policy stays open", dueDate: now.Add(-time.Hour), allowLate: true, status: assignment.StatusPublished, wantStatus: assignment.StatusPublished},
		{name: "not yet due stays open", dueDate: now.Add(time.Hour), status: assignment.StatusPublished, wantStatus: assignment.StatusPublished},
		{name: "draft untouched", dueDate: now.Add(-time.Hour), status: assignment.StatusDraft, wantStatus: assignment.StatusDraft},
		{name: "closed stays closed", dueDate: now.Add(-time.Hour), status: assignment.StatusClosed, wantStatus: assignment.StatusClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, db := setup(t)
			crs := seedCourse(t, db, course.StatusPublished)
			a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", tt.dueDate, 20, tt.allowLate, false, tt.status)

			got, err := svc.AutoCloseIfExpired(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)

			stored, err := repo.GetAssignmentByID(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusPublished)
		a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(-time.Hour), 20, false, false, assignment.StatusPublished)

		first, err := svc.AutoCloseIfExpired(ctx, a)
		require.NoError(t, err)
		second, err := svc.AutoCloseIfExpired(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, assignment.StatusClosed, second.Status)
	})

	t.Run("racing callers both see closed", func(t *testing.T) {
		svc, repo, db := setup(t)
		crs := seedCourse(t, db, course.StatusPublished)
		a := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(-time.Hour), 20, false, false, assignment.StatusPublished)

		first, err := svc.AutoCloseIfExpired(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, assignment.StatusClosed, first.Status)

		// second caller still holds the published snapshot; its conditional
		// write loses against the already-closed row
		second, err := svc.AutoCloseIfExpired(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, assignment.StatusClosed, second.Status)

		// the losing write left no mark: the stored row took exactly one
		// published-to-closed transition
		applied, err := repo.UpdateAssignmentStatus(ctx, a.ID, assignment.StatusPublished, assignment.StatusClosed)
		require.NoError(t, err)
		assert.False(t, applied, "row is no longer published")
		stored, err := repo.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, assignment.StatusClosed, stored.Status)
	})
}

func TestServiceGetForLearner(t *testing.T) {
	ctx := context.Background()
	svc, repo, db := setup(t)
	crs := seedCourse(t, db, course.StatusPublished)

	draft := testutil.CreateAssignment(t, repo, crs.ID, "Draft", now.Add(time.Hour), 20, false, false, assignment.StatusDraft)
	_, err := svc.GetForLearner(ctx, crs.ID, draft.ID)
	assert.Equal(t, assignment.ErrNotFound, err, "drafts are invisible to learners")

	published := testutil.CreateAssignment(t, repo, crs.ID, "Worksheet", now.Add(time.Hour), 20, false, false, assignment.StatusPublished)
	_, err = svc.GetForLearner(ctx, "some-other-course", published.ID)
	assert.Equal(t, assignment.ErrNotFound, err, "course mismatch reads as missing")

	got, err := svc.GetForLearner(ctx, crs.ID, published.ID)
	require.NoError(t, err)
	assert.Equal(t, published.ID, got.ID)

	// the read path itself applies the auto-close rule
	expired := testutil.CreateAssignment(t, repo, crs.ID, "Expired", now.Add(-time.Hour), 20, false, false, assignment.StatusPublished)
	got, err = svc.GetForLearner(ctx, crs.ID, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusClosed, got.Status)
}

func TestServiceQueryVisibleByCourse(t *testing.T) {
	ctx := context.Background()
	svc, repo, db := setup(t)
	crs := seedCourse(t, db, course.StatusPublished)

	testutil.CreateAssignment(t, repo, crs.ID, "Draft", now.Add(time.Hour), 10, false, false, assignment.StatusDraft)
	published := testutil.CreateAssignment(t, repo, crs.ID, "Open", now.Add(time.Hour), 10, false, false, assignment.StatusPublished)
	expired := testutil.CreateAssignment(t, repo, crs.ID, "Expired", now.Add(-time.Hour), 10, false, false, assignment.StatusPublished)

	visible, err := svc.QueryVisibleByCourse(ctx, crs.ID)
	require.NoError(t, err)
	require.Len(t, visible, 2)

	byID := make(map[string]assignment.Assignment, len(visible))
	for _, a := range visible {
		byID[a.ID] = a
	}
	assert.Equal(t, assignment.StatusPublished, byID[published.ID].Status)
	assert.Equal(t, assignment.StatusClosed, byID[expired.ID].Status)
}

func TestServiceCourseWeightTotal(t *testing.T) {
	ctx := context.Background()
	svc, repo, db := setup(t)
	crs := seedCourse(t, db, course.StatusPublished)

	testutil.CreateAssignment(t, repo, crs.ID, "A", now.Add(time.Hour), 40, false, false, assignment.StatusPublished)
	testutil.CreateAssignment(t, repo, crs.ID, "B", now.Add(time.Hour), 35, false, false, assignment.StatusDraft)

	total, err := svc.CourseWeightTotal(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, total)
}
