package lessons

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
)

// CreateLessonRequest is the payload for POST /courses/{courseId}/lessons.
type CreateLessonRequest struct {
	Title             string  `json:"title" validate:"required,max=200"`
	Content           *string `json:"content,omitempty"`
	DurationInMinutes int     `json:"duration_in_minutes" validate:"gte=0"`
	VideoURL          *string `json:"video_url,omitempty" validate:"omitempty,url"`
	Order             int     `json:"order" validate:"gte=0"`
}

// UpdateLessonRequest applies only the fields that are present.
type UpdateLessonRequest struct {
	Title             *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content           *string `json:"content,omitempty"`
	DurationInMinutes *int    `json:"duration_in_minutes,omitempty" validate:"omitempty,gte=0"`
	VideoURL          *string `json:"video_url,omitempty" validate:"omitempty,url"`
	Order             *int    `json:"order,omitempty" validate:"omitempty,gte=0"`
}

// LessonDTO is the API shape of a lesson.
type LessonDTO struct {
	ID                uuid.UUID `json:"id"`
	CourseID          uuid.UUID `json:"course_id"`
	Title             string    `json:"title"`
	Content           *string   `json:"content,omitempty"`
	DurationInMinutes int       `json:"duration_in_minutes"`
	VideoURL          *string   `json:"video_url,omitempty"`
	Order             int       `json:"order"`
	CreatedAt         time.Time `json:"created_at"`
}

func FromModel(l *models.Lesson) *LessonDTO {
	if l == nil {
		return nil
	}
	return &LessonDTO{
		ID:                l.ID,
		CourseID:          l.CourseID,
		Title:             l.Title,
		Content:           l.Content,
		DurationInMinutes: l.DurationInMinutes,
		VideoURL:          l.VideoURL,
		Order:             l.Order,
		CreatedAt:         l.CreatedAt,
	}
}
