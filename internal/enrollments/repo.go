package enrollments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/repo"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

// Repository persists enrollments.
type Repository struct {
	repo.Base
}

// NewRepository constructs an enrollments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, e *models.Enrollment) error {
	return r.DB(ctx).Omit("Payment").Create(e).Error
}

// FindByID loads an enrollment with its payment, if any.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := r.DB(ctx).Preload("Payment").First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns enrollments newest first, restricted to studentID when set.
func (r *Repository) List(ctx context.Context, studentID *uuid.UUID) ([]models.Enrollment, error) {
	q := r.DB(ctx).Preload("Payment")
	if studentID != nil {
		q = q.Where("student_id = ?", *studentID)
	}
	var list []models.Enrollment
	if err := q.Order("enrolled_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	var list []models.Enrollment
	if err := r.DB(ctx).
		Preload("Payment").
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListByStatus returns enrollments in status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status enums.EnrollmentStatus) ([]models.Enrollment, error) {
	var list []models.Enrollment
	if err := r.DB(ctx).
		Preload("Payment").
		Where("status = ?", status).
		Order("enrolled_at ASC").Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// HasActive reports whether the student holds a Pending or Approved
// enrollment in the course.
func (r *Repository) HasActive(ctx context.Context, studentID, courseID uuid.UUID) (bool, error) {
	return r.exists(ctx, studentID, courseID, enums.EnrollmentStatusPending, enums.EnrollmentStatusApproved)
}

// HasApprovedEnrollment reports whether the student may read the course lessons.
func (r *Repository) HasApprovedEnrollment(ctx context.Context, studentID, courseID uuid.UUID) (bool, error) {
	return r.exists(ctx, studentID, courseID, enums.EnrollmentStatusApproved)
}

func (r *Repository) exists(ctx context.Context, studentID, courseID uuid.UUID, statuses ...enums.EnrollmentStatus) (bool, error) {
	var count int64
	if err := r.DB(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status IN ?", studentID, courseID, statuses).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus overwrites the status unconditionally.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EnrollmentStatus, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at}).Error
}

// Delete removes the enrollment and its payment.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DB(ctx).Where("enrollment_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	return r.DB(ctx).Delete(&models.Enrollment{}, "id = ?", id).Error
}
