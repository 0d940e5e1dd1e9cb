package courses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/internal/tags"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/dbtest"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

type fixture struct {
	client *db.Client
	svc    Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), tags.NewRepository(client.DB()), client)
	require.NoError(t, err)
	return fixture{client: client, svc: svc}
}

func principalFor(u *models.User) access.Principal {
	return access.Principal{UserID: u.ID, Role: u.Role}
}

func validRequest(tagIDs ...uuid.UUID) CourseRequest {
	return CourseRequest{
		Title:           "Intro to Go",
		Description:     "Channels and goroutines",
		Price:           decimal.RequireFromString("19.99"),
		DurationInWeeks: 6,
		Level:           "Beginner",
		TagIDs:          tagIDs,
	}
}

func TestCreateRoundTripsTagSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := dbtest.SeedUser(t, f.client, enums.UserRoleInstructor)
	goTag := dbtest.SeedTag(t, f.client, "go")
	sqlTag := dbtest.SeedTag(t, f.client, "sql")
	dbtest.SeedTag(t, f.client, "unused")

	created, err := f.svc.Create(ctx, principalFor(instructor), validRequest(goTag.ID, sqlTag.ID, goTag.ID))
	require.NoError(t, err)
	require.Equal(t, instructor.ID, created.InstructorID)
	require.Equal(t, enums.CourseStatusDraft, created.Status)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, tag := range got.Tags {
		ids = append(ids, tag.ID)
	}
	require.ElementsMatch(t, []uuid.UUID{goTag.ID, sqlTag.ID}, ids)
	require.True(t, got.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestCreateRejectsUnknownTags(t *testing.T) {
	f := newFixture(t)
	instructor := dbtest.SeedUser(t, f.client, enums.UserRoleInstructor)

	_, err := f.svc.Create(context.Background(), principalFor(instructor), validRequest(uuid.New()))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Course{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateRoleGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := dbtest.SeedUser(t, f.client, enums.UserRoleStudent)

	_, err := f.svc.Create(ctx, access.Principal{}, validRequest())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Create(ctx, principalFor(student), validRequest())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	bad := validRequest()
	bad.Level = "Expert"
	admin := dbtest.SeedUser(t, f.client, enums.UserRoleAdmin)
	_, err = f.svc.Create(ctx, principalFor(admin), bad)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	negative := validRequest()
	negative.Price = decimal.NewFromInt(-1)
	_, err = f.svc.Create(ctx, principalFor(admin), negative)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateOwnershipAndTagReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.client, enums.UserRoleInstructor)
	other := dbtest.SeedUser(t, f.client, enums.UserRoleInstructor)
	admin := dbtest.SeedUser(t, f.client, enums.UserRoleAdmin)
	oldTag := dbtest.SeedTag(t, f.client, "old")
	newTag := dbtest.SeedTag(t, f.client, "new")

	created, err := f.svc.Create(ctx, principalFor(owner), validRequest(oldTag.ID))
	require.NoError(t, err)

	req := validRequest(newTag.ID)
	req.Title = "Advanced Go"
	req.Level = "Advanced"
	req.Status = "Published"

	_, err = f.svc.Update(ctx, principalFor(other), created.ID, req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Update(ctx, principalFor(owner), uuid.New(), req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := f.svc.Update(ctx, principalFor(owner), created.ID, req)
	require.NoError(t, err)
	require.Equal(t, "Advanced Go", updated.Title)
	require.Equal(t, owner.ID, updated.InstructorID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	require.Equal(t, newTag.ID, got.Tags[0].ID)
	require.Equal(t, enums.CourseStatusPublished, got.Status)

	_, err = f.svc.Update(ctx, principalFor(admin), created.ID, validRequest())
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := dbtest.SeedUser(t, f.client, enums.UserRoleInstructor)
	for i := 0; i < 3; i++ {
		dbtest.SeedCourse(t, f.client, instructor.ID)
	}

	first, err := f.svc.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	require.False(t, first.Items[0].CreatedAt.Before(first.Items[1].CreatedAt))

	second, err := f.svc.List(ctx, ListParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, c := range append(first.Items, second.Items...) {
		seen[c.ID] = true
	}
	require.Len(t, seen, 3)

	_, err = f.svc.List(ctx, ListParams{Cursor: "not-a-cursor"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteCascadesToChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, f.client, enums.UserRoleInstructor)
	student := dbtest.SeedUser(t, f.client, enums.UserRoleStudent)
	tag := dbtest.SeedTag(t, f.client, "cascade")

	created, err := f.svc.Create(ctx, principalFor(owner), validRequest(tag.ID))
	require.NoError(t, err)
	dbtest.SeedLesson(t, f.client, created.ID, 1)
	enrollment := dbtest.SeedEnrollment(t, f.client, student.ID, created.ID, enums.EnrollmentStatusApproved)
	dbtest.SeedPayment(t, f.client, enrollment.ID)

	err = f.svc.Delete(ctx, principalFor(student), created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, f.svc.Delete(ctx, principalFor(owner), created.ID))

	for _, table := range []any{&models.Course{}, &models.Lesson{}, &models.Enrollment{}, &models.Payment{}} {
		var count int64
		require.NoError(t, f.client.DB().Model(table).Count(&count).Error)
		require.Zero(t, count, "%T rows remain", table)
	}
	var links int64
	require.NoError(t, f.client.DB().Table("course_tags").Count(&links).Error)
	require.Zero(t, links)

	var tagCount int64
	require.NoError(t, f.client.DB().Model(&models.Tag{}).Count(&tagCount).Error)
	require.EqualValues(t, 1, tagCount)

	err = f.svc.Delete(ctx, principalFor(owner), created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
