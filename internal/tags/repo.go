package tags

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/repo"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
)

// Repository persists tags and their course links.
type Repository struct {
	repo.Base
}

// NewRepository constructs a tags repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) List(ctx context.Context) ([]models.Tag, error) {
	var list []models.Tag
	if err := r.DB(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := r.DB(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByIDs returns the tags matching ids; missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var list []models.Tag
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) Create(ctx context.Context, tag *models.Tag) error {
	return r.DB(ctx).Create(tag).Error
}

func (r *Repository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	return r.DB(ctx).Model(&models.Tag{}).Where("id = ?", id).Update("name", name).Error
}

// Delete removes the tag and every course link pointing at it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DB(ctx).Exec("DELETE FROM course_tags WHERE tag_id = ?", id).Error; err != nil {
		return err
	}
	return r.DB(ctx).Delete(&models.Tag{}, "id = ?", id).Error
}
