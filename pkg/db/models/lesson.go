package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lesson is a unit of content inside a course.
type Lesson struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	CourseID          uuid.UUID `gorm:"column:course_id;type:uuid;not null;index"`
	Title             string    `gorm:"column:title;size:200;not null"`
	Content           *string   `gorm:"column:content;type:text"`
	DurationInMinutes int       `gorm:"column:duration_in_minutes;not null"`
	VideoURL          *string   `gorm:"column:video_url"`
	Order             int       `gorm:"column:sort_order;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
