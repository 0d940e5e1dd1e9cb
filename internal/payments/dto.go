package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

// CreatePaymentRequest omits status and payment date; both are set server side.
type CreatePaymentRequest struct {
	EnrollmentID uuid.UUID       `json:"enrollment_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" validate:"required,len=3"`
	Provider     string          `json:"provider" validate:"required,max=50"`
}

// UpdatePaymentRequest changes the payment status.
type UpdatePaymentRequest struct {
	Status string `json:"status" validate:"required"`
}

// PaymentDTO is the API shape of a payment.
type PaymentDTO struct {
	ID           uuid.UUID           `json:"id"`
	EnrollmentID uuid.UUID           `json:"enrollment_id"`
	Amount       decimal.Decimal     `json:"amount"`
	Currency     string              `json:"currency"`
	Provider     string              `json:"provider"`
	PaymentDate  time.Time           `json:"payment_date"`
	Status       enums.PaymentStatus `json:"status"`
}

func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:           p.ID,
		EnrollmentID: p.EnrollmentID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Provider:     p.Provider,
		PaymentDate:  p.PaymentDate,
		Status:       p.Status,
	}
}

func FromModels(list []models.Payment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
