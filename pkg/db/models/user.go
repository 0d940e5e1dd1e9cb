package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"gorm.io/gorm"
)

// User represents an account on the platform.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	FirstName           string         `gorm:"column:first_name;size:100;not null"`
	LastName            string         `gorm:"column:last_name;size:100;not null"`
	Email               string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash        string         `gorm:"column:password_hash;not null"`
	PasswordLastUpdated time.Time      `gorm:"column:password_last_updated;not null"`
	Role                enums.UserRole `gorm:"column:role;type:text;not null"`
	IsActive            bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt         *time.Time     `gorm:"column:last_login_at"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
