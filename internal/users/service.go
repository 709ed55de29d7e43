package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/db"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service serves the caller's own profile.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	return s.load(ctx, s.repo, userID)
}

func (s *service) load(ctx context.Context, repo *Repository, userID uuid.UUID) (*UserDTO, error) {
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.NotFound("user")
	}
	dto := FromModel(user)

	address, err := repo.FindAddress(ctx, userID)
	switch {
	case err == nil:
		dto.Address = addressFromModel(address)
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	return dto, nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.Invalid("name", "name must not be empty")
		}
		fields["name"] = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			fields["phone"] = nil
		} else {
			fields["phone"] = phone
		}
	}
	if input.Address != nil && input.Address.empty() {
		return nil, pkgerrors.Invalid("address", "address needs at least one field")
	}
	if len(fields) == 0 && input.Address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	var updated *UserDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, repo, userID); err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := repo.UpdateProfile(ctx, userID, fields); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
			}
		}
		if input.Address != nil {
			if err := repo.UpsertAddress(ctx, input.Address.toModel(userID)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save address")
			}
		}
		dto, err := s.load(ctx, repo, userID)
		if err != nil {
			return err
		}
		updated = dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
