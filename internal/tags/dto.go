package tags

import (
	"github.com/google/uuid"

	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
)

// TagDTO is the API shape of a tag.
type TagDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TagRequest is the create/update payload.
type TagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

func FromModel(t *models.Tag) *TagDTO {
	if t == nil {
		return nil
	}
	return &TagDTO{ID: t.ID, Name: t.Name}
}

func FromModels(list []models.Tag) []TagDTO {
	out := make([]TagDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
