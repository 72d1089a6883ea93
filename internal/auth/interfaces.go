package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/soumadip-dev/AuthSystem-API/internal/account"
)

// AccountStore is the persistence collaborator for accounts.
// *account.Repository is the production implementation.
type AccountStore interface {
	Create(ctx context.Context, name, email, passwordHash, verificationToken string, verificationExpiresAt time.Time) (*account.Account, error)
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*account.Account, error)
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// TokenService mints and validates session tokens.
// PasetoService (PASETO v4.local) is the production implementation.
type TokenService interface {
	CreateToken(accountID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
