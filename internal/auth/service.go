package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soumadip-dev/AuthSystem-API/internal/account"
	"github.com/soumadip-dev/AuthSystem-API/internal/email"
	"github.com/soumadip-dev/AuthSystem-API/internal/logging"
)

var (
	ErrNameRequired             = errors.New("name is required")
	ErrEmailRequired            = errors.New("email is required")
	ErrPasswordRequired         = errors.New("password is required")
	ErrInvalidEmailFormat       = errors.New("invalid email format")
	ErrWeakPassword             = errors.New("password is not strong enough")
	ErrSamePassword             = errors.New("new password must differ from the current one")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrNotVerified              = errors.New("account not verified, please check your inbox")
	ErrAlreadyVerified          = errors.New("account already verified")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrVerificationExpired      = errors.New("verification token has expired")
	ErrInvalidResetToken        = errors.New("invalid reset token")
	ErrResetExpired             = errors.New("reset token has expired")

	// ErrNotification reports a failed email dispatch. The account mutation it
	// followed is already persisted and is not rolled back; the user can
	// request a new email.
	ErrNotification = errors.New("notification email could not be sent")
)

// Service owns the account lifecycle: registration, verification, login,
// password reset. All failures are sentinel errors; nothing panics across
// this boundary.
type Service struct {
	accounts        AccountStore
	tokens          TokenService
	sender          email.Sender
	logger          *logging.Logger
	sessionTTL      time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
}

func NewService(
	accounts AccountStore,
	tokens TokenService,
	sender email.Sender,
	logger *logging.Logger,
	sessionTTL time.Duration,
	verificationTTL time.Duration,
	resetTTL time.Duration,
) *Service {
	return &Service{
		accounts:        accounts,
		tokens:          tokens,
		sender:          sender,
		logger:          logger,
		sessionTTL:      sessionTTL,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
	}
}

// Register creates a new unverified account and dispatches the verification
// email. The account is persisted before the dispatch attempt; a dispatch
// failure is returned as ErrNotification together with the created account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*account.Account, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !IsValidEmail(email) {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !IsStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	// The unique index on email is authoritative for duplicates; the store
	// surfaces a constraint violation as ErrDuplicateEmail.
	newAccount, err := s.accounts.Create(ctx, name, email, passwordHash, verificationToken, time.Now().Add(s.verificationTTL))
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return nil, account.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.sender.SendVerificationEmail(ctx, newAccount.Email, newAccount.Name, verificationToken); err != nil {
		s.logger.Warn("failed to send verification email", "email", newAccount.Email, "error", err)
		return newAccount, fmt.Errorf("%w: %v", ErrNotification, err)
	}

	return newAccount, nil
}

// RequestVerification issues a fresh verification token for the account bound
// to the authenticated session, replacing any outstanding one, and dispatches
// it. Only the most recent token is valid.
func (s *Service) RequestVerification(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if acc.Verified {
		return ErrAlreadyVerified
	}

	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.accounts.SetVerificationToken(ctx, acc.ID, token, time.Now().Add(s.verificationTTL)); err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	if err := s.sender.SendVerificationEmail(ctx, acc.Email, acc.Name, token); err != nil {
		s.logger.Warn("failed to send verification email", "email", acc.Email, "error", err)
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	return nil
}

// VerifyAccount confirms email ownership with a link token. Confirming twice
// reports ErrAlreadyVerified rather than silent success; an expired token
// leaves the account untouched.
func (s *Service) VerifyAccount(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerificationToken
	}

	acc, err := s.accounts.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to get account by verification token: %w", err)
	}

	if acc.Verified {
		return ErrAlreadyVerified
	}

	if acc.VerificationExpiresAt == nil || time.Now().After(*acc.VerificationExpiresAt) {
		return ErrVerificationExpired
	}

	if err := s.accounts.MarkVerified(ctx, acc.ID); err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	return nil
}

// Login checks credentials and mints a session token. Unknown email and wrong
// password both answer ErrInvalidCredentials so the response does not confirm
// whether an address is registered; the verification gate is only reachable
// after the password has been proven correct.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*account.Account, string, error) {
	if emailAddr == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	acc, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get account: %w", err)
	}

	if !VerifyPassword(acc.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	if !acc.Verified {
		return nil, "", ErrNotVerified
	}

	token, err := s.tokens.CreateToken(acc.ID, acc.Email, s.sessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return acc, token, nil
}

// RequestPasswordReset issues a fresh reset token, replacing any outstanding
// one. The token is persisted before the dispatch attempt.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	if emailAddr == "" {
		return ErrEmailRequired
	}

	acc, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.accounts.SetResetToken(ctx, acc.ID, token, time.Now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	if err := s.sender.SendPasswordResetEmail(ctx, acc.Email, acc.Name, token); err != nil {
		s.logger.Warn("failed to send password reset email", "email", acc.Email, "error", err)
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	return nil
}

// ResetPassword replaces the password after proving possession of a valid,
// unexpired reset token. The new password must satisfy the strength policy and
// must differ from the current one, compared through the same hash primitive
// used by Login. The consumed token is cleared in the same update as the hash.
func (s *Service) ResetPassword(ctx context.Context, emailAddr, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if !IsStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	acc, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if acc.ResetToken == nil || token == "" ||
		subtle.ConstantTimeCompare([]byte(*acc.ResetToken), []byte(token)) != 1 {
		return ErrInvalidResetToken
	}

	if acc.ResetExpiresAt == nil || time.Now().After(*acc.ResetExpiresAt) {
		return ErrResetExpired
	}

	if VerifyPassword(acc.PasswordHash, newPassword) {
		return ErrSamePassword
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, acc.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// GetAccount loads the account bound to an authenticated session
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}
