package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/auth"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/security"
)

const tempPasswordLength = 24

// ResolveInput is the identity slice of a checkout payload.
type ResolveInput struct {
	AccountID     *uuid.UUID
	Email         string
	FirstName     string
	LastName      string
	Phone         *string
	CreateAccount bool
	Password      string
}

// Resolution is the owning account for an order plus creation side effects.
type Resolution struct {
	User    *models.User
	Created bool
	// SessionToken is set only when the caller explicitly opted into
	// account creation; it is a response-channel side effect (cookie),
	// never persisted state.
	SessionToken string
}

// Service finds or creates the account an order belongs to. It never mutates
// order state.
//
// Orders for a known email are attached to the existing account without an
// authentication proof; the storefront has always merged repeat guests by
// email and that behaviour is kept as-is.
type Service interface {
	Resolve(ctx context.Context, tx *gorm.DB, input ResolveInput) (*Resolution, error)
}

type service struct {
	repo        Repository
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	now         func() time.Time
}

// NewService builds the identity resolver.
func NewService(repo Repository, passwordCfg config.PasswordConfig, jwtCfg config.JWTConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	return &service{
		repo:        repo,
		passwordCfg: passwordCfg,
		jwtCfg:      jwtCfg,
		now:         time.Now,
	}, nil
}

func (s *service) Resolve(ctx context.Context, tx *gorm.DB, input ResolveInput) (*Resolution, error) {
	repo := s.repo.WithTx(tx)

	// A stale account id is treated as absence, not an error: checkout
	// falls through to guest resolution.
	if input.AccountID != nil && *input.AccountID != uuid.Nil {
		user, err := repo.FindByID(ctx, *input.AccountID)
		if err == nil {
			return &Resolution{User: user}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
		}
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := repo.FindByEmail(ctx, email)
	if err == nil {
		return &Resolution{User: user}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account by email")
	}

	created, fresh, err := s.createAccount(ctx, repo, input, email)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{User: created, Created: fresh}
	if input.CreateAccount {
		token, err := auth.MintSessionToken(s.jwtCfg, s.now(), auth.SessionPayload{
			UserID: created.ID,
			Email:  created.Email,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
		}
		resolution.SessionToken = token
	}
	return resolution, nil
}

func (s *service) createAccount(ctx context.Context, repo Repository, input ResolveInput, email string) (*models.User, bool, error) {
	password := input.Password
	if !input.CreateAccount || password == "" {
		// Guests still get a credential-bearing record; the placeholder
		// is random so it can never be used to log in.
		temp, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate placeholder password")
		}
		password = temp
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	name := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName))
	if name == "" {
		name = email
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Phone:        input.Phone,
		Active:       true,
	}
	created, err := repo.Create(ctx, user)
	if db.IsUniqueViolation(err, "idx_users_email") {
		// Two concurrent checkouts for the same new email; merge onto the
		// row that won the insert.
		existing, findErr := repo.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload account after conflict")
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return created, true, nil
}
