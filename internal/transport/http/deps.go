package http

import (
	"context"

	"github.com/expertguide/expertguide-api/internal/application/twofactor"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/expertguide/expertguide-api/internal/infrastructure/events"
	jwtinfra "github.com/expertguide/expertguide-api/internal/infrastructure/jwt"
	"github.com/expertguide/expertguide-api/internal/infrastructure/smtp"
	"github.com/expertguide/expertguide-api/internal/infrastructure/sns"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

// RoleRepository is the minimal interface the router requires from a
// role-membership store.
type RoleRepository interface {
	FindRole(ctx context.Context, userID string) (string, error)
	Assign(ctx context.Context, userID, role string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     UserRepository
	RoleRepo     RoleRepository
	AttemptStore twofactor.Store
	Mailer       smtp.Mailer
	SMSSender    sns.SMSSender
	Tokens       *jwtinfra.Provider
	Audit        events.AuditPublisher
}
