package enrollments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
)

// CreateEnrollmentRequest has no status field: new enrollments always start
// Pending. StudentID defaults to the caller when omitted.
type CreateEnrollmentRequest struct {
	StudentID uuid.UUID `json:"student_id"`
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
}

// SetStatusRequest carries the raw status so unknown values surface as
// validation errors from the service.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EnrollmentDTO is the API shape of an enrollment.
type EnrollmentDTO struct {
	ID          uuid.UUID              `json:"id"`
	StudentID   uuid.UUID              `json:"student_id"`
	CourseID    uuid.UUID              `json:"course_id"`
	Status      enums.EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time              `json:"enrolled_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Grade       *decimal.Decimal       `json:"grade,omitempty"`
	Payment     *PaymentSummary        `json:"payment,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// PaymentSummary is the payment embedded in an enrollment response.
type PaymentSummary struct {
	ID          uuid.UUID           `json:"id"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	Provider    string              `json:"provider"`
	PaymentDate time.Time           `json:"payment_date"`
	Status      enums.PaymentStatus `json:"status"`
}

func FromModel(e *models.Enrollment) *EnrollmentDTO {
	if e == nil {
		return nil
	}
	dto := &EnrollmentDTO{
		ID:          e.ID,
		StudentID:   e.StudentID,
		CourseID:    e.CourseID,
		Status:      e.Status,
		EnrolledAt:  e.EnrolledAt,
		CompletedAt: e.CompletedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Grade.Valid {
		grade := e.Grade.Decimal
		dto.Grade = &grade
	}
	if p := e.Payment; p != nil {
		dto.Payment = &PaymentSummary{
			ID:          p.ID,
			Amount:      p.Amount,
			Currency:    p.Currency,
			Provider:    p.Provider,
			PaymentDate: p.PaymentDate,
			Status:      p.Status,
		}
	}
	return dto
}

func FromModels(list []models.Enrollment) []EnrollmentDTO {
	out := make([]EnrollmentDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
