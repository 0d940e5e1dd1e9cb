package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Enrollment links a student to a course and carries the approval lifecycle.
type Enrollment struct {
	ID          uuid.UUID              `gorm:"type:uuid;primaryKey"`
	StudentID   uuid.UUID              `gorm:"column:student_id;type:uuid;not null;index"`
	CourseID    uuid.UUID              `gorm:"column:course_id;type:uuid;not null;index"`
	Status      enums.EnrollmentStatus `gorm:"column:status;type:text;not null"`
	EnrolledAt  time.Time              `gorm:"column:enrolled_at;not null"`
	CompletedAt *time.Time             `gorm:"column:completed_at"`
	Grade       decimal.NullDecimal    `gorm:"column:grade;type:numeric(5,2)"`
	Payment     *Payment               `gorm:"foreignKey:EnrollmentID"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
