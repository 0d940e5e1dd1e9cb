// Package dbtest opens isolated sqlite databases with the full schema and
// seeds the rows most service tests start from.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nerdacademy/nerdacademy-backend/pkg/config"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

// Open returns a migrated in-memory database private to the calling test.
func Open(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, client *db.Client, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:           "Test",
		LastName:            string(role),
		Email:               fmt.Sprintf("na_test_%s@example.com", uuid.NewString()),
		PasswordHash:        "hash",
		PasswordLastUpdated: time.Now().UTC(),
		Role:                role,
		IsActive:            true,
	}
	if err := client.DB().Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// SeedCourse inserts a published course owned by instructorID.
func SeedCourse(t *testing.T, client *db.Client, instructorID uuid.UUID) *models.Course {
	t.Helper()
	course := &models.Course{
		Title:           "Course " + uuid.NewString()[:8],
		Description:     "seeded",
		Price:           decimal.RequireFromString("49.99"),
		DurationInWeeks: 4,
		Level:           enums.CourseLevelBeginner,
		Status:          enums.CourseStatusPublished,
		InstructorID:    instructorID,
	}
	if err := client.DB().Omit("Tags", "Instructor").Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

// SeedTag inserts a tag with the given name.
func SeedTag(t *testing.T, client *db.Client, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name}
	if err := client.DB().Create(tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return tag
}

// SeedLesson inserts a lesson at the given position.
func SeedLesson(t *testing.T, client *db.Client, courseID uuid.UUID, order int) *models.Lesson {
	t.Helper()
	lesson := &models.Lesson{
		CourseID:          courseID,
		Title:             fmt.Sprintf("Lesson %d", order),
		DurationInMinutes: 15,
		Order:             order,
	}
	if err := client.DB().Create(lesson).Error; err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return lesson
}

// SeedEnrollment inserts an enrollment with the given status.
func SeedEnrollment(t *testing.T, client *db.Client, studentID, courseID uuid.UUID, status enums.EnrollmentStatus) *models.Enrollment {
	t.Helper()
	enrollment := &models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     status,
		EnrolledAt: time.Now().UTC(),
	}
	if err := client.DB().Omit("Payment").Create(enrollment).Error; err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	return enrollment
}

// SeedPayment inserts a pending payment for the enrollment.
func SeedPayment(t *testing.T, client *db.Client, enrollmentID uuid.UUID) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		EnrollmentID: enrollmentID,
		Amount:       decimal.RequireFromString("49.99"),
		Currency:     "USD",
		Provider:     "stripe",
		PaymentDate:  time.Now().UTC(),
		Status:       enums.PaymentStatusPending,
	}
	if err := client.DB().Create(payment).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return payment
}
