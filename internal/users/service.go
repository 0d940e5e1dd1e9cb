package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/internal/repo"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
)

// Service is the user directory.
type Service interface {
	List(ctx context.Context, p access.Principal) ([]UserDTO, error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, p access.Principal) ([]UserDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return FromModels(list), nil
}

func (s *service) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*UserDTO, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.LookupError(err, "user")
	}
	if err := access.CanViewUser(p, user.ID); err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, p access.Principal, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, repo.LookupError(err, "user")
	}

	columns := map[string]any{}
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be empty")
		}
		columns["first_name"] = name
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be empty")
		}
		columns["last_name"] = name
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		columns["email"] = email
	}
	if req.IsActive != nil {
		columns["is_active"] = *req.IsActive
	}

	if err := s.repo.Update(ctx, id, columns); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.LookupError(err, "user")
	}
	return FromModel(user), nil
}

// Delete deactivates the account. The row stays so courses and enrollments
// keep their references.
func (s *service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return repo.LookupError(err, "user")
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate user")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
