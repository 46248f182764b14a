// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// SessionTokenBytes is the entropy of a session token (64 hex chars).
	SessionTokenBytes = 32

	// DefaultIdleTimeout is the sliding inactivity window. Every
	// authenticated request pushes expiry out by this much.
	DefaultIdleTimeout = 30 * time.Minute
)

// Session is a server-side session record. Only the SHA-256 hash of the
// opaque token is stored; the plaintext goes to the client once and is
// never persisted.
type Session struct {
	ID           ulid.ULID
	AccountEmail string
	TokenHash    string
	CreatedAt    time.Time
	LastSeenAt   time.Time
	ExpiresAt    time.Time
}

// NewSession creates a validated session bound to an account.
// Expiry is set one idle window from now; Touch slides it forward.
func NewSession(accountEmail, tokenHash string, idleTimeout time.Duration) (*Session, error) {
	if accountEmail == "" {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account email cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if idleTimeout <= 0 {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("idle timeout must be positive")
	}

	now := time.Now().UTC()
	return &Session{
		ID:           ulid.Make(),
		AccountEmail: accountEmail,
		TokenHash:    tokenHash,
		CreatedAt:    now,
		LastSeenAt:   now,
		ExpiresAt:    now.Add(idleTimeout),
	}, nil
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is sent to the client; the hash is stored in the database.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks if the plaintext token matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifySessionToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashSessionToken(token)
	// Both are hex-encoded SHA256 hashes (64 chars), use constant-time compare
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	// Returns ErrNotFound (wrapped) when no such session exists.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Touch updates LastSeenAt and slides ExpiresAt forward.
	// Returns ErrNotFound (wrapped) when the session is gone.
	Touch(ctx context.Context, id ulid.ULID, seenAt, expiresAt time.Time) error

	// DeleteByTokenHash removes a session. Deleting an absent session is
	// not an error; logout is idempotent.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes all expired sessions and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
