package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the bun table model for registered accounts.
// Email carries a unique index; all lookups by email lower-case both sides.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID                    uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name                  string     `bun:"name,notnull"`
	Email                 string     `bun:"email,notnull,unique"`
	PasswordHash          string     `bun:"password_hash,notnull"`
	Verified              bool       `bun:"verified,notnull,default:false"`
	VerificationToken     *string    `bun:"verification_token"`
	VerificationExpiresAt *time.Time `bun:"verification_expires_at"`
	ResetToken            *string    `bun:"reset_token"`
	ResetExpiresAt        *time.Time `bun:"reset_expires_at"`
	CreatedAt             time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt             time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
