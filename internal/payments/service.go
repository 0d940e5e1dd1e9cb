package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

// Service records payments against enrollments. Payment status is
// independent of the enrollment status.
type Service interface {
	Create(ctx context.Context, p access.Principal, req CreatePaymentRequest) (*PaymentDTO, error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*PaymentDTO, error)
	List(ctx context.Context, p access.Principal) ([]PaymentDTO, error)
	UpdateStatus(ctx context.Context, p access.Principal, id uuid.UUID, status string) (*PaymentDTO, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type enrollmentLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error)
}

type service struct {
	repo        *Repository
	enrollments enrollmentLoader
	now         func() time.Time
}

// NewService builds the payment service.
func NewService(repo *Repository, enrollments enrollmentLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment repository required")
	}
	return &service{
		repo:        repo,
		enrollments: enrollments,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create records a Pending payment. An absent or foreign enrollment is
// reported as FORBIDDEN so callers cannot probe enrollment ids. A second
// payment for the same enrollment trips the unique index and surfaces as an
// internal error.
func (s *service) Create(ctx context.Context, p access.Principal, req CreatePaymentRequest) (*PaymentDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "enrollment not available for payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load enrollment")
	}
	if err := access.CanCreatePayment(p, enrollment.StudentID); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be zero or greater")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter code")
	}
	provider := strings.TrimSpace(req.Provider)
	if provider == "" || len(provider) > 50 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider is required and at most 50 characters")
	}

	payment := &models.Payment{
		EnrollmentID: enrollment.ID,
		Amount:       req.Amount.Round(2),
		Currency:     currency,
		Provider:     provider,
		PaymentDate:  s.now(),
		Status:       enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
	}
	return FromModel(payment), nil
}

func (s *service) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*PaymentDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.FindByID(ctx, payment.EnrollmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load enrollment")
	}
	if err := access.CanViewPayment(p, enrollment.StudentID); err != nil {
		return nil, err
	}
	return FromModel(payment), nil
}

func (s *service) List(ctx context.Context, p access.Principal) ([]PaymentDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	return FromModels(list), nil
}

func (s *service) UpdateStatus(ctx context.Context, p access.Principal, id uuid.UUID, status string) (*PaymentDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	parsed, err := enums.ParsePaymentStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status").
			WithDetails(map[string]any{"status": status})
	}
	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, payment.ID, parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
	}
	payment.Status = parsed
	return FromModel(payment), nil
}

func (s *service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete payment")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	return payment, nil
}
