package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
	"github.com/nerdacademy/nerdacademy-backend/pkg/pagination"
)

// Service exposes course catalog operations.
type Service interface {
	Create(ctx context.Context, p access.Principal, req CourseRequest) (*CourseDTO, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[CourseDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*CourseDTO, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, req CourseRequest) (*CourseDTO, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type tagLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error)
}

type service struct {
	repo *Repository
	tags tagLoader
	db   *db.Client
}

// NewService builds the course service.
func NewService(repo *Repository, tagRepo tagLoader, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("course repository required")
	}
	if tagRepo == nil {
		return nil, fmt.Errorf("tag repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, tags: tagRepo, db: dbClient}, nil
}

func (s *service) Create(ctx context.Context, p access.Principal, req CourseRequest) (*CourseDTO, error) {
	if err := access.CanAuthorCourse(p); err != nil {
		return nil, err
	}
	fields, err := parseCourseRequest(req)
	if err != nil {
		return nil, err
	}
	tagSet, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		InstructorID: p.UserID,
		Tags:         tagSet,
	}
	fields.apply(course)

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, course)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create course")
	}
	return FromModel(course), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[CourseDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list courses")
	}
	dtos := make([]CourseDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	page := pagination.BuildPage(dtos, params.Limit, func(c CourseDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CourseDTO, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(course), nil
}

func (s *service) Update(ctx context.Context, p access.Principal, id uuid.UUID, req CourseRequest) (*CourseDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageCourse(p, course.InstructorID); err != nil {
		return nil, err
	}
	fields, err := parseCourseRequest(req)
	if err != nil {
		return nil, err
	}
	tagSet, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	fields.apply(course)
	course.UpdatedAt = time.Now().UTC()
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(ctx, course, tagSet)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update course")
	}
	return FromModel(course), nil
}

func (s *service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.RequireAuthenticated(p); err != nil {
		return err
	}
	course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanManageCourse(p, course.InstructorID); err != nil {
		return err
	}
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, course.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete course")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load course")
	}
	return course, nil
}

// resolveTags loads every requested tag; any unknown id fails the request.
func (s *service) resolveTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []models.Tag{}, nil
	}

	found, err := s.tags.FindByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tags")
	}
	if len(found) != len(unique) {
		known := make(map[uuid.UUID]struct{}, len(found))
		for _, tag := range found {
			known[tag.ID] = struct{}{}
		}
		missing := make([]string, 0, len(unique)-len(found))
		for _, id := range unique {
			if _, ok := known[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown tag ids").WithDetails(map[string]any{"tag_ids": missing})
	}
	return found, nil
}

type courseFields struct {
	title       string
	description string
	price       decimal.Decimal
	weeks       int
	level       enums.CourseLevel
	status      enums.CourseStatus
}

func (f courseFields) apply(c *models.Course) {
	c.Title = f.title
	c.Description = f.description
	c.Price = f.price
	c.DurationInWeeks = f.weeks
	c.Level = f.level
	c.Status = f.status
}

func parseCourseRequest(req CourseRequest) (courseFields, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return courseFields{}, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if len([]rune(title)) > 200 {
		return courseFields{}, pkgerrors.New(pkgerrors.CodeValidation, "title must be at most 200 characters")
	}
	if req.Price.IsNegative() {
		return courseFields{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
	}
	if req.DurationInWeeks < 0 {
		return courseFields{}, pkgerrors.New(pkgerrors.CodeValidation, "duration_in_weeks must be zero or greater")
	}
	level, err := enums.ParseCourseLevel(strings.TrimSpace(req.Level))
	if err != nil {
		return courseFields{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid level")
	}
	status := enums.CourseStatusDraft
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err = enums.ParseCourseStatus(raw)
		if err != nil {
			return courseFields{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
	}
	return courseFields{
		title:       title,
		description: req.Description,
		price:       req.Price.Round(2),
		weeks:       req.DurationInWeeks,
		level:       level,
		status:      status,
	}, nil
}
