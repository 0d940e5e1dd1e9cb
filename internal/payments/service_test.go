package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/internal/enrollments"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/dbtest"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

type fixture struct {
	client     *db.Client
	svc        Service
	admin      access.Principal
	owner      access.Principal
	other      access.Principal
	enrollment *models.Enrollment
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), enrollments.NewRepository(client.DB()))
	require.NoError(t, err)

	admin := dbtest.SeedUser(t, client, enums.UserRoleAdmin)
	instructor := dbtest.SeedUser(t, client, enums.UserRoleInstructor)
	owner := dbtest.SeedUser(t, client, enums.UserRoleStudent)
	other := dbtest.SeedUser(t, client, enums.UserRoleStudent)
	course := dbtest.SeedCourse(t, client, instructor.ID)

	return fixture{
		client:     client,
		svc:        svc,
		admin:      access.Principal{UserID: admin.ID, Role: admin.Role},
		owner:      access.Principal{UserID: owner.ID, Role: owner.Role},
		other:      access.Principal{UserID: other.ID, Role: other.Role},
		enrollment: dbtest.SeedEnrollment(t, client, owner.ID, course.ID, enums.EnrollmentStatusPending),
	}
}

func (f fixture) request() CreatePaymentRequest {
	return CreatePaymentRequest{
		EnrollmentID: f.enrollment.ID,
		Amount:       decimal.RequireFromString("49.99"),
		Currency:     "usd",
		Provider:     "stripe",
	}
}

func (f fixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.client.DB().Model(&models.Payment{}).Count(&count).Error)
	return count
}

func TestCreateForcesPendingAndNormalizesCurrency(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.owner, f.request())
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, created.Status)
	require.Equal(t, "USD", created.Currency)
	require.False(t, created.PaymentDate.IsZero())
	require.EqualValues(t, 1, f.paymentCount(t))
}

func TestCreateForeignOrMissingEnrollmentIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.other, f.request())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	missing := f.request()
	missing.EnrollmentID = uuid.New()
	_, err = f.svc.Create(ctx, f.owner, missing)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Create(ctx, f.admin, f.request())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Create(ctx, access.Principal{}, f.request())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.Zero(t, f.paymentCount(t))
}

func TestSecondPaymentSurfacesAsInternalError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, f.request())
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.owner, f.request())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal), "got %v", err)
	require.EqualValues(t, 1, f.paymentCount(t))
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.owner, f.request())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.owner, created.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, f.admin, created.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.other, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Get(ctx, f.owner, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAdminOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.owner, f.request())
	require.NoError(t, err)

	_, err = f.svc.List(ctx, f.owner)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	list, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.UpdateStatus(ctx, f.admin, created.ID, "Refunded")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	updated, err := f.svc.UpdateStatus(ctx, f.admin, created.ID, "Completed")
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCompleted, updated.Status)

	var enrollment models.Enrollment
	require.NoError(t, f.client.DB().First(&enrollment, "id = ?", f.enrollment.ID).Error)
	require.Equal(t, enums.EnrollmentStatusPending, enrollment.Status)

	require.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.owner, created.ID), pkgerrors.CodeForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))
	require.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.admin, created.ID), pkgerrors.CodeNotFound))
}
