package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/soumadip-dev/AuthSystem-API/internal/database"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles account persistence. Every mutation is a single-row
// update, so concurrency correctness rests on the database, not on locks here.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new unverified account. The unique index on email is the
// source of truth for duplicates; a violation is translated to ErrDuplicateEmail
// even when a prior existence check passed.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash, verificationToken string, verificationExpiresAt time.Time) (*Account, error) {
	dbAccount := &database.Account{
		Name:                  name,
		Email:                 strings.ToLower(email),
		PasswordHash:          passwordHash,
		Verified:              false,
		VerificationToken:     &verificationToken,
		VerificationExpiresAt: &verificationExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbAccount).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// GetByEmail retrieves an account by email, matched case-insensitively
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("lower(email) = lower(?)", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// GetByID retrieves an account by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// GetByVerificationToken retrieves the account holding a verification token,
// verified or not. The caller decides how to treat an already verified match.
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("verification_token = ?", token).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by verification token: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// SetVerificationToken overwrites the outstanding verification token.
// Only the most recently issued token is ever valid.
func (r *Repository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("verification_token = ?", token).
		Set("verification_expires_at = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("verified = ?", false).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	return checkRowsAffected(result)
}

// MarkVerified flips the account to verified and clears the token expiry.
// The token value itself is retained so a replayed confirmation can be
// answered with "already verified" instead of "unknown token"; a token on a
// verified account can never cause another transition.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("verified = ?", true).
		Set("verification_expires_at = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	return checkRowsAffected(result)
}

// SetResetToken overwrites the outstanding password reset token
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("reset_token = ?", token).
		Set("reset_expires_at = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return checkRowsAffected(result)
}

// UpdatePassword replaces the password hash and clears the reset token and its
// expiry in the same update, so a consumed reset code cannot be replayed.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_token = ?", nil).
		Set("reset_expires_at = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return checkRowsAffected(result)
}

func checkRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBAccountToModel converts the bun table model to the domain model
func mapDBAccountToModel(dba *database.Account) *Account {
	return &Account{
		ID:                    dba.ID,
		Name:                  dba.Name,
		Email:                 dba.Email,
		PasswordHash:          dba.PasswordHash,
		Verified:              dba.Verified,
		VerificationToken:     dba.VerificationToken,
		VerificationExpiresAt: dba.VerificationExpiresAt,
		ResetToken:            dba.ResetToken,
		ResetExpiresAt:        dba.ResetExpiresAt,
		CreatedAt:             dba.CreatedAt,
		UpdatedAt:             dba.UpdatedAt,
	}
}
