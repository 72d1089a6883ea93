package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is the domain model for a registered user identity.
// Credential and code fields are never serialized in API responses.
type Account struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	Verified              bool       `json:"verified"`
	VerificationToken     *string    `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	ResetToken            *string    `json:"-"`
	ResetExpiresAt        *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
