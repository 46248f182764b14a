// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// Service provides registration, authentication and session operations.
type Service struct {
	accounts    AccountRepository
	sessions    SessionRepository
	hasher      PasswordHasher
	idleTimeout time.Duration
}

// NewService creates a new Service. A non-positive idleTimeout falls back
// to DefaultIdleTimeout.
func NewService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, idleTimeout time.Duration) *Service {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Service{
		accounts:    accounts,
		sessions:    sessions,
		hasher:      hasher,
		idleTimeout: idleTimeout,
	}
}

// dummyPasswordHash is used when an account doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register validates the input, hashes the password and stores the account.
// Returns ErrInvalidInput (wrapped) on validation failure and
// ErrDuplicateAccount (wrapped) when the email is taken.
func (s *Service) Register(ctx context.Context, email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account := &Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return err
	}
	return nil
}

// Authenticate verifies credentials and returns the account email as the
// authenticated principal.
// Uses constant-time operations to prevent timing-based account enumeration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	targetHash := dummyPasswordHash
	accountExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
		// Keep the dummy hash - still perform verification to maintain constant time
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	// Always verify the password regardless of account existence
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			return "", oops.Code("AUTH_UNKNOWN_ACCOUNT").Wrap(ErrNotFound)
		}
		// The stored hash is unreadable, which is a data problem rather
		// than a credential mismatch.
		return "", oops.Code("AUTH_MALFORMED_HASH").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists {
		return "", oops.Code("AUTH_UNKNOWN_ACCOUNT").Wrap(ErrNotFound)
	}
	if !valid {
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrIncorrectPassword)
	}

	return account.Email, nil
}

// Login authenticates an account and creates a session.
// Returns the session and the plaintext token for the client cookie.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, string, error) {
	principal, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(principal, tokenHash, s.idleTimeout)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// Logout invalidates the session behind the token. Unknown or already
// cleared tokens are a no-op; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// TouchAndRead resolves a token to its live session, refreshing the sliding
// expiry on success. Absent and expired sessions both surface
// ErrUnauthenticated; expiry is enforced lazily at read time.
func (s *Service) TouchAndRead(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Wrap(ErrUnauthenticated)
	}

	tokenHash := HashSessionToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrUnauthenticated)
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := time.Now().UTC()
	if session.IsExpiredAt(now) {
		return nil, oops.Code("SESSION_EXPIRED").Wrap(ErrUnauthenticated)
	}

	// Slide the window (non-blocking, ignore errors)
	session.LastSeenAt = now
	session.ExpiresAt = now.Add(s.idleTimeout)
	_ = s.sessions.Touch(ctx, session.ID, session.LastSeenAt, session.ExpiresAt) //nolint:errcheck // Best effort, validation succeeds regardless

	return session, nil
}

// SweepExpired removes expired session rows and returns the count.
// Reclamation only; correctness never depends on the sweep running.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return count, nil
}
