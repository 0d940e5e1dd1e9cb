package courses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/repo"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/pagination"
)

// Repository persists courses and their tag links.
type Repository struct {
	repo.Base
}

// NewRepository constructs a courses repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Create inserts the course and links the already persisted tags.
func (r *Repository) Create(ctx context.Context, course *models.Course) error {
	return r.DB(ctx).Omit("Tags.*", "Instructor").Create(course).Error
}

// FindByID loads a course with its tags.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := r.DB(ctx).Preload("Tags").First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns one newest-first page plus a lookahead row.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Course, error) {
	var list []models.Course
	if err := r.DB(ctx).
		Preload("Tags").
		Scopes(pagination.NewestFirst(cursor, limit)).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update writes the editable columns and replaces the tag set.
func (r *Repository) Update(ctx context.Context, course *models.Course, tagSet []models.Tag) error {
	if err := r.DB(ctx).
		Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]any{
			"title":             course.Title,
			"description":       course.Description,
			"price":             course.Price,
			"duration_in_weeks": course.DurationInWeeks,
			"level":             course.Level,
			"status":            course.Status,
			"updated_at":        course.UpdatedAt,
		}).Error; err != nil {
		return err
	}
	if err := r.DB(ctx).Exec("DELETE FROM course_tags WHERE course_id = ?", course.ID).Error; err != nil {
		return err
	}
	for _, tag := range tagSet {
		if err := r.DB(ctx).Exec("INSERT INTO course_tags (course_id, tag_id) VALUES (?, ?)", course.ID, tag.ID).Error; err != nil {
			return err
		}
	}
	course.Tags = tagSet
	return nil
}

// Delete removes the course together with its lessons, tag links,
// enrollments and their payments.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	enrollmentIDs := db.Model(&models.Enrollment{}).Select("id").Where("course_id = ?", id)
	steps := []func() error{
		func() error { return db.Where("enrollment_id IN (?)", enrollmentIDs).Delete(&models.Payment{}).Error },
		func() error { return db.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error },
		func() error { return db.Where("course_id = ?", id).Delete(&models.Lesson{}).Error },
		func() error { return db.Exec("DELETE FROM course_tags WHERE course_id = ?", id).Error },
		func() error { return db.Delete(&models.Course{}, "id = ?", id).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
