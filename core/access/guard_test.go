package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kymanzi/darasa/core/access"
	"github.com/kymanzi/darasa/core/course"
	"github.com/kymanzi/darasa/core/user"
	inmemdb "github.com/kymanzi/darasa/storage/database/inmem"
	testutil "github.com/kymanzi/darasa/tests"
)

func setup(t *testing.T) (access.Guard, testutil.CourseSeeder) {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)
	courseRepo := inmemdb.NewCourseRepository(db)
	return access.NewGuard(courseRepo), courseRepo
}

func TestGuardRequireRole(t *testing.T) {
	g, _ := setup(t)

	learner := user.User{ID: "u1", IsActive: true, Roles: []string{user.RoleLearner}}
	multi := user.User{ID: "u2", IsActive: true, Roles: []string{user.RoleLearner, user.RoleInstructor}}

	tests := []struct {
		name    string
		usr     user.User
		roles   []string
		wantErr error
	}{
		{"anonymous", user.User{}, []string{user.RoleLearner}, access.ErrUnauthorized},
		{"deactivated", user.User{ID: "u1", IsActive: false, Roles: []string{user.RoleLearner}}, []string{user.RoleLearner}, access.ErrUnauthorized},
		{"wrong role", learner, []string{user.RoleInstructor}, access.ErrForbiddenRole},
		{"matching role", learner, []string{user.RoleLearner}, nil},
		{"any of several", learner, []string{user.RoleInstructor, user.RoleLearner}, nil},
		{"multi-role user", multi, []string{user.RoleInstructor}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, g.RequireRole(tt.usr, tt.roles...))
		})
	}
}

func TestGuardRequireActiveEnrollment(t *testing.T) {
	ctx := context.Background()
	g, seeder := setup(t)

	crs := testutil.CreateCourse(t, seeder, "instructor-id", "Intro to Go", course.StatusPublished)
	testutil.Enroll(t, seeder, crs.ID, "active-learner", course.EnrollmentActive)
	testutil.Enroll(t, seeder, crs.ID, "dropped-learner", course.EnrollmentCancelled)

	assert.NoError(t, g.RequireActiveEnrollment(ctx, crs.ID, "active-learner"))
	assert.Equal(t, access.ErrNotEnrolled, g.RequireActiveEnrollment(ctx, crs.ID, "dropped-learner"))
	assert.Equal(t, access.ErrNotEnrolled, g.RequireActiveEnrollment(ctx, crs.ID, "stranger"))
	assert.Equal(t, access.ErrNotEnrolled, g.RequireActiveEnrollment(ctx, "no-such-course", "active-learner"))
}

func TestGuardRequireCourseOwnership(t *testing.T) {
	ctx := context.Background()
	g, seeder := setup(t)

	crs := testutil.CreateCourse(t, seeder, "owner-id", "Intro to Go", course.StatusPublished)

	assert.NoError(t, g.RequireCourseOwnership(ctx, crs.ID, "owner-id"))
	assert.Equal(t, access.ErrNotOwner, g.RequireCourseOwnership(ctx, crs.ID, "other-instructor"))
	assert.Equal(t, access.ErrNotOwner, g.RequireCourseOwnership(ctx, "no-such-course", "owner-id"))
}
