package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Course is a catalog entry owned by a single instructor.
type Course struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Title           string             `gorm:"column:title;size:200;not null"`
	Description     string             `gorm:"column:description;type:text;not null;default:''"`
	Price           decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	DurationInWeeks int                `gorm:"column:duration_in_weeks;not null"`
	Level           enums.CourseLevel  `gorm:"column:level;type:text;not null"`
	Status          enums.CourseStatus `gorm:"column:status;type:text;not null"`
	InstructorID    uuid.UUID          `gorm:"column:instructor_id;type:uuid;not null;index"`
	Instructor      *User              `gorm:"foreignKey:InstructorID"`
	Tags            []Tag              `gorm:"many2many:course_tags;"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
