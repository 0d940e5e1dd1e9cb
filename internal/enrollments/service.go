package enrollments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

// Service drives the enrollment lifecycle: every enrollment starts Pending and
// only admins move it between Pending, Approved and Rejected.
type Service interface {
	Create(ctx context.Context, p access.Principal, req CreateEnrollmentRequest) (*EnrollmentDTO, error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*EnrollmentDTO, error)
	List(ctx context.Context, p access.Principal) ([]EnrollmentDTO, error)
	ListByCourse(ctx context.Context, p access.Principal, courseID uuid.UUID) ([]EnrollmentDTO, error)
	ListManageable(ctx context.Context, p access.Principal) ([]EnrollmentDTO, error)
	Approve(ctx context.Context, p access.Principal, id uuid.UUID) (*EnrollmentDTO, error)
	Reject(ctx context.Context, p access.Principal, id uuid.UUID) (*EnrollmentDTO, error)
	SetStatus(ctx context.Context, p access.Principal, id uuid.UUID, status string) (*EnrollmentDTO, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type courseLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type lifecycleMetrics interface {
	IncCreated()
	IncTransition(from, to string)
}

type noopMetrics struct{}

func (noopMetrics) IncCreated()                {}
func (noopMetrics) IncTransition(_, _ string) {}

// ServiceParams bundles the dependencies of the enrollment service.
type ServiceParams struct {
	Repo    *Repository
	Courses courseLoader
	DB      *db.Client
	Metrics lifecycleMetrics
	Now     func() time.Time
}

type service struct {
	repo    *Repository
	courses courseLoader
	db      *db.Client
	metrics lifecycleMetrics
	now     func() time.Time
}

// NewService builds the enrollment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("enrollment repository required")
	}
	if params.Courses == nil {
		return nil, fmt.Errorf("course repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		courses: params.Courses,
		db:      params.DB,
		metrics: metrics,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, p access.Principal, req CreateEnrollmentRequest) (*EnrollmentDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	studentID := req.StudentID
	if studentID == uuid.Nil {
		studentID = p.UserID
	}
	if err := access.CanCreateEnrollment(p, studentID); err != nil {
		return nil, err
	}
	if req.CourseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course_id is required")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load course")
	}

	enrollment := &models.Enrollment{
		StudentID:  studentID,
		CourseID:   req.CourseID,
		Status:     enums.EnrollmentStatusPending,
		EnrolledAt: s.now(),
	}
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		active, err := txRepo.HasActive(ctx, studentID, req.CourseID)
		if err != nil {
			return err
		}
		if active {
			return pkgerrors.New(pkgerrors.CodeConflict, "student already has an active enrollment in this course")
		}
		return txRepo.Create(ctx, enrollment)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create enrollment")
	}

	s.metrics.IncCreated()
	return FromModel(enrollment), nil
}

func (s *service) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*EnrollmentDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanAccessEnrollment(p, enrollment.StudentID); err != nil {
		return nil, err
	}
	return FromModel(enrollment), nil
}

func (s *service) List(ctx context.Context, p access.Principal) ([]EnrollmentDTO, error) {
	scope, err := access.EnrollmentScope(p)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list enrollments")
	}
	return FromModels(list), nil
}

func (s *service) ListByCourse(ctx context.Context, p access.Principal, courseID uuid.UUID) ([]EnrollmentDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load course")
	}
	list, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list course enrollments")
	}
	return FromModels(list), nil
}

// ListManageable returns the approval queue: every Pending enrollment, oldest first.
func (s *service) ListManageable(ctx context.Context, p access.Principal) ([]EnrollmentDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByStatus(ctx, enums.EnrollmentStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending enrollments")
	}
	return FromModels(list), nil
}

func (s *service) Approve(ctx context.Context, p access.Principal, id uuid.UUID) (*EnrollmentDTO, error) {
	return s.transition(ctx, p, id, enums.EnrollmentStatusApproved)
}

func (s *service) Reject(ctx context.Context, p access.Principal, id uuid.UUID) (*EnrollmentDTO, error) {
	return s.transition(ctx, p, id, enums.EnrollmentStatusRejected)
}

func (s *service) SetStatus(ctx context.Context, p access.Principal, id uuid.UUID, status string) (*EnrollmentDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	parsed, err := enums.ParseEnrollmentStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid enrollment status").
			WithDetails(map[string]any{"status": status})
	}
	return s.transition(ctx, p, id, parsed)
}

// transition applies any-to-any status changes. Concurrent admins race and
// the last write wins. Payment, completion and grade are left untouched.
func (s *service) transition(ctx context.Context, p access.Principal, id uuid.UUID, to enums.EnrollmentStatus) (*EnrollmentDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := enrollment.Status
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, enrollment.ID, to, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update enrollment status")
	}
	enrollment.Status = to
	enrollment.UpdatedAt = now
	s.metrics.IncTransition(string(from), string(to))
	return FromModel(enrollment), nil
}

func (s *service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.RequireAuthenticated(p); err != nil {
		return err
	}
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanAccessEnrollment(p, enrollment.StudentID); err != nil {
		return err
	}
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, enrollment.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete enrollment")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "enrollment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load enrollment")
	}
	return enrollment, nil
}
