package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag labels courses in the catalog.
type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name;size:50;not null;uniqueIndex"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
