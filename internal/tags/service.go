package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

// Service exposes the tag catalog.
type Service interface {
	List(ctx context.Context) ([]TagDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TagDTO, error)
	Create(ctx context.Context, p access.Principal, req TagRequest) (*TagDTO, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, req TagRequest) (*TagDTO, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type service struct {
	repo *Repository
	db   *db.Client
}

// NewService builds the tag service.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tag repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, db: dbClient}, nil
}

func (s *service) List(ctx context.Context) ([]TagDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tags")
	}
	return FromModels(list), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TagDTO, error) {
	tag, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(tag), nil
}

func (s *service) Create(ctx context.Context, p access.Principal, req TagRequest) (*TagDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: name}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, mapWriteError(err, "create tag")
	}
	return FromModel(tag), nil
}

func (s *service) Update(ctx context.Context, p access.Principal, id uuid.UUID, req TagRequest) (*TagDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	tag, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, tag.ID, name); err != nil {
		return nil, mapWriteError(err, "update tag")
	}
	tag.Name = name
	return FromModel(tag), nil
}

func (s *service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete tag")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tag not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tag")
	}
	return tag, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len([]rune(name)) > 50 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must be at most 50 characters")
	}
	return name, nil
}

func mapWriteError(err error, msg string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "tag name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
