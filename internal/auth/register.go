package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/roperito/roperito-backend/internal/users"
	"github.com/roperito/roperito-backend/pkg/db"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/security"
)

// Register opens an account and signs it in. Emails are unique regardless of case.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.Invalid("name", "name is required")
	}
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.Invalid("email", "email is required")
	}
	if len(req.Password) < security.MinPasswordLength {
		return nil, pkgerrors.Invalid("password", fmt.Sprintf("password must be at least %d characters", security.MinPasswordLength))
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.Conflict("email already registered")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        req.Phone,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Conflict("email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return s.issue(ctx, user, s.now())
}
