package courses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nerdacademy/nerdacademy-backend/internal/tags"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

// CourseRequest is the create and full-replace update payload.
type CourseRequest struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DurationInWeeks int             `json:"duration_in_weeks" validate:"gte=0"`
	Level           string          `json:"level" validate:"required"`
	Status          string          `json:"status"`
	TagIDs          []uuid.UUID     `json:"tag_ids"`
}

// CourseDTO is the API shape of a course.
type CourseDTO struct {
	ID              uuid.UUID          `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Price           decimal.Decimal    `json:"price"`
	DurationInWeeks int                `json:"duration_in_weeks"`
	Level           enums.CourseLevel  `json:"level"`
	Status          enums.CourseStatus `json:"status"`
	InstructorID    uuid.UUID          `json:"instructor_id"`
	Tags            []tags.TagDTO      `json:"tags"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ListParams carries the cursor window for GET /courses.
type ListParams struct {
	Limit  int
	Cursor string
}

func FromModel(c *models.Course) *CourseDTO {
	if c == nil {
		return nil
	}
	return &CourseDTO{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Price:           c.Price,
		DurationInWeeks: c.DurationInWeeks,
		Level:           c.Level,
		Status:          c.Status,
		InstructorID:    c.InstructorID,
		Tags:            tags.FromModels(c.Tags),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
