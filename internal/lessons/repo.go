package lessons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/repo"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
)

// Repository persists lessons.
type Repository struct {
	repo.Base
}

// NewRepository constructs a lessons repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListByCourse returns lessons by position, then creation time.
func (r *Repository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error) {
	var list []models.Lesson
	if err := r.DB(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.DB(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *Repository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.DB(ctx).Create(lesson).Error
}

// Update writes the mutable columns; course_id never changes.
func (r *Repository) Update(ctx context.Context, lesson *models.Lesson) error {
	return r.DB(ctx).
		Model(&models.Lesson{}).
		Where("id = ?", lesson.ID).
		Updates(map[string]any{
			"title":               lesson.Title,
			"content":             lesson.Content,
			"duration_in_minutes": lesson.DurationInMinutes,
			"video_url":           lesson.VideoURL,
			"sort_order":          lesson.Order,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Lesson{}, "id = ?", id).Error
}
