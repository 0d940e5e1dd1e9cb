package lessons

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/internal/courses"
	"github.com/nerdacademy/nerdacademy-backend/internal/enrollments"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/dbtest"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

type fixture struct {
	client      *db.Client
	svc         Service
	enrollments enrollments.Service
	admin       access.Principal
	owner       access.Principal
	course      *models.Course
}

func as(u *models.User) access.Principal {
	return access.Principal{UserID: u.ID, Role: u.Role}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	courseRepo := courses.NewRepository(client.DB())
	enrollmentRepo := enrollments.NewRepository(client.DB())

	svc, err := NewService(NewRepository(client.DB()), courseRepo, enrollmentRepo)
	require.NoError(t, err)
	enrollmentSvc, err := enrollments.NewService(enrollments.ServiceParams{Repo: enrollmentRepo, Courses: courseRepo, DB: client})
	require.NoError(t, err)

	owner := dbtest.SeedUser(t, client, enums.UserRoleInstructor)
	return fixture{
		client:      client,
		svc:         svc,
		enrollments: enrollmentSvc,
		admin:       as(dbtest.SeedUser(t, client, enums.UserRoleAdmin)),
		owner:       as(owner),
		course:      dbtest.SeedCourse(t, client, owner.ID),
	}
}

func TestApprovalGatesStudentLessonReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.SeedLesson(t, f.client, f.course.ID, 1)
	a := as(dbtest.SeedUser(t, f.client, enums.UserRoleStudent))
	b := as(dbtest.SeedUser(t, f.client, enums.UserRoleStudent))

	enrollment, err := f.enrollments.Create(ctx, a, enrollments.CreateEnrollmentRequest{StudentID: a.UserID, CourseID: f.course.ID})
	require.NoError(t, err)

	_, err = f.svc.ListForCourse(ctx, a, f.course.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "pending must not grant access")

	_, err = f.enrollments.SetStatus(ctx, f.admin, enrollment.ID, "Approved")
	require.NoError(t, err)

	list, err := f.svc.ListForCourse(ctx, a, f.course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.ListForCourse(ctx, b, f.course.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.enrollments.Reject(ctx, f.admin, enrollment.ID)
	require.NoError(t, err)
	_, err = f.svc.ListForCourse(ctx, a, f.course.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestReadAccessByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lesson := dbtest.SeedLesson(t, f.client, f.course.ID, 1)
	stranger := as(dbtest.SeedUser(t, f.client, enums.UserRoleInstructor))

	_, err := f.svc.ListForCourse(ctx, access.Principal{}, f.course.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.ListForCourse(ctx, f.admin, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Get(ctx, f.owner, lesson.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, f.admin, lesson.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, stranger, lesson.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.Get(ctx, f.owner, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOrdersByPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	third := dbtest.SeedLesson(t, f.client, f.course.ID, 3)
	first := dbtest.SeedLesson(t, f.client, f.course.ID, 1)
	second := dbtest.SeedLesson(t, f.client, f.course.ID, 2)

	list, err := f.svc.ListForCourse(ctx, f.owner, f.course.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
}

func TestManageRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := as(dbtest.SeedUser(t, f.client, enums.UserRoleInstructor))
	student := as(dbtest.SeedUser(t, f.client, enums.UserRoleStudent))
	req := CreateLessonRequest{Title: "Goroutines", DurationInMinutes: 20, Order: 1}

	_, err := f.svc.Create(ctx, stranger, f.course.ID, req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.Create(ctx, student, f.course.ID, req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.Create(ctx, f.owner, uuid.New(), req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	created, err := f.svc.Create(ctx, f.owner, f.course.ID, req)
	require.NoError(t, err)

	title := "Channels"
	minutes := 45
	_, err = f.svc.Update(ctx, stranger, created.ID, UpdateLessonRequest{Title: &title})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	updated, err := f.svc.Update(ctx, f.admin, created.ID, UpdateLessonRequest{Title: &title, DurationInMinutes: &minutes})
	require.NoError(t, err)
	require.Equal(t, "Channels", updated.Title)
	require.Equal(t, 45, updated.DurationInMinutes)
	require.Equal(t, 1, updated.Order)

	got, err := f.svc.Get(ctx, f.owner, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Channels", got.Title)

	require.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, stranger, created.ID), pkgerrors.CodeForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.owner, created.ID))
	require.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.owner, created.ID), pkgerrors.CodeNotFound))
}
