package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soumadip-dev/AuthSystem-API/internal/account"
)

// fakeAccountStore is an in-memory AccountStore mirroring the behavior of
// account.Repository, with error injection for failure paths.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account

	createErr error
	getErr    error
	updateErr error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[uuid.UUID]*account.Account)}
}

func (f *fakeAccountStore) Create(ctx context.Context, name, email, passwordHash, verificationToken string, verificationExpiresAt time.Time) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	for _, acc := range f.accounts {
		if strings.EqualFold(acc.Email, email) {
			return nil, account.ErrDuplicateEmail
		}
	}

	now := time.Now()
	token := verificationToken
	expiry := verificationExpiresAt
	acc := &account.Account{
		ID:                    uuid.New(),
		Name:                  name,
		Email:                 strings.ToLower(email),
		PasswordHash:          passwordHash,
		Verified:              false,
		VerificationToken:     &token,
		VerificationExpiresAt: &expiry,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	f.accounts[acc.ID] = acc

	copied := *acc
	return &copied, nil
}

func (f *fakeAccountStore) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	for _, acc := range f.accounts {
		if strings.EqualFold(acc.Email, email) {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	acc, ok := f.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	copied := *acc
	return &copied, nil
}

func (f *fakeAccountStore) GetByVerificationToken(ctx context.Context, token string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, acc := range f.accounts {
		if acc.VerificationToken != nil && *acc.VerificationToken == token {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccountStore) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}

	acc, ok := f.accounts[id]
	if !ok || acc.Verified {
		return account.ErrNotFound
	}
	acc.VerificationToken = &token
	acc.VerificationExpiresAt = &expiresAt
	acc.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAccountStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}

	acc, ok := f.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.Verified = true
	acc.VerificationExpiresAt = nil
	acc.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAccountStore) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}

	acc, ok := f.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.ResetToken = &token
	acc.ResetExpiresAt = &expiresAt
	acc.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAccountStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}

	acc, ok := f.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.PasswordHash = passwordHash
	acc.ResetToken = nil
	acc.ResetExpiresAt = nil
	acc.UpdatedAt = time.Now()
	return nil
}

// mutate runs fn against the stored account, bypassing the store API.
// Used to age tokens past their expiry in tests.
func (f *fakeAccountStore) mutate(id uuid.UUID, fn func(*account.Account)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.accounts[id]; ok {
		fn(acc)
	}
}

type sentMail struct {
	To    string
	Name  string
	Token string
}

// recordingSender is an email.Sender that records dispatches and can be made
// to fail.
type recordingSender struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
	sendErr       error
}

func (r *recordingSender) SendVerificationEmail(ctx context.Context, toEmail, name, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.verifications = append(r.verifications, sentMail{To: toEmail, Name: name, Token: token})
	return nil
}

func (r *recordingSender) SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.resets = append(r.resets, sentMail{To: toEmail, Name: name, Token: token})
	return nil
}

func (r *recordingSender) lastVerification() (sentMail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.verifications) == 0 {
		return sentMail{}, false
	}
	return r.verifications[len(r.verifications)-1], true
}

func (r *recordingSender) lastReset() (sentMail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resets) == 0 {
		return sentMail{}, false
	}
	return r.resets[len(r.resets)-1], true
}
