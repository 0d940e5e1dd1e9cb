package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment records a charge against exactly one enrollment.
type Payment struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	EnrollmentID uuid.UUID           `gorm:"column:enrollment_id;type:uuid;not null;uniqueIndex"`
	Amount       decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency     string              `gorm:"column:currency;size:3;not null"`
	Provider     string              `gorm:"column:provider;size:50;not null"`
	PaymentDate  time.Time           `gorm:"column:payment_date;not null"`
	Status       enums.PaymentStatus `gorm:"column:status;type:text;not null"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
