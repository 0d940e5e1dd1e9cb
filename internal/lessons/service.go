package lessons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

// Service manages lessons. Reads are limited to admins, the owning
// instructor and students holding an Approved enrollment.
type Service interface {
	ListForCourse(ctx context.Context, p access.Principal, courseID uuid.UUID) ([]LessonDTO, error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*LessonDTO, error)
	Create(ctx context.Context, p access.Principal, courseID uuid.UUID, req CreateLessonRequest) (*LessonDTO, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, req UpdateLessonRequest) (*LessonDTO, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type courseLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type approvalChecker interface {
	HasApprovedEnrollment(ctx context.Context, studentID, courseID uuid.UUID) (bool, error)
}

type service struct {
	repo      *Repository
	courses   courseLoader
	approvals approvalChecker
}

// NewService builds the lesson service.
func NewService(repo *Repository, courses courseLoader, approvals approvalChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lesson repository required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course repository required")
	}
	if approvals == nil {
		return nil, fmt.Errorf("enrollment repository required")
	}
	return &service{repo: repo, courses: courses, approvals: approvals}, nil
}

func (s *service) ListForCourse(ctx context.Context, p access.Principal, courseID uuid.UUID) ([]LessonDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, p, course); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list lessons")
	}
	out := make([]LessonDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*LessonDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	lesson, course, err := s.loadWithCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, p, course); err != nil {
		return nil, err
	}
	return FromModel(lesson), nil
}

func (s *service) Create(ctx context.Context, p access.Principal, courseID uuid.UUID, req CreateLessonRequest) (*LessonDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageCourse(p, course.InstructorID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if req.DurationInMinutes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration_in_minutes must be zero or greater")
	}

	lesson := &models.Lesson{
		CourseID:          course.ID,
		Title:             title,
		Content:           req.Content,
		DurationInMinutes: req.DurationInMinutes,
		VideoURL:          trimmed(req.VideoURL),
		Order:             req.Order,
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create lesson")
	}
	return FromModel(lesson), nil
}

func (s *service) Update(ctx context.Context, p access.Principal, id uuid.UUID, req UpdateLessonRequest) (*LessonDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	lesson, course, err := s.loadWithCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageCourse(p, course.InstructorID); err != nil {
		return nil, err
	}
	if err := applyUpdate(lesson, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update lesson")
	}
	return FromModel(lesson), nil
}

func (s *service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.RequireAuthenticated(p); err != nil {
		return err
	}
	lesson, course, err := s.loadWithCourse(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanManageCourse(p, course.InstructorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lesson.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete lesson")
	}
	return nil
}

// canRead only consults enrollments for students; other roles are decided
// by role and ownership alone.
func (s *service) canRead(ctx context.Context, p access.Principal, course *models.Course) error {
	approved := false
	if p.Role == enums.UserRoleStudent {
		ok, err := s.approvals.HasApprovedEnrollment(ctx, p.UserID, course.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check enrollment")
		}
		approved = ok
	}
	return access.CanReadLessons(p, course.InstructorID, approved)
}

func (s *service) loadCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load course")
	}
	return course, nil
}

func (s *service) loadWithCourse(ctx context.Context, id uuid.UUID) (*models.Lesson, *models.Course, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "lesson not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load lesson")
	}
	course, err := s.loadCourse(ctx, lesson.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return lesson, course, nil
}

func applyUpdate(lesson *models.Lesson, req UpdateLessonRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		lesson.Title = title
	}
	if req.Content != nil {
		lesson.Content = req.Content
	}
	if req.DurationInMinutes != nil {
		if *req.DurationInMinutes < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "duration_in_minutes must be zero or greater")
		}
		lesson.DurationInMinutes = *req.DurationInMinutes
	}
	if req.VideoURL != nil {
		lesson.VideoURL = trimmed(req.VideoURL)
	}
	if req.Order != nil {
		lesson.Order = *req.Order
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
