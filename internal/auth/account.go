// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Account registration constraints.
const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// MaxEmailLength caps the email identity (RFC 5321 address limit).
	MaxEmailLength = 254
)

// emailPattern accepts local@domain.tld shapes without whitespace. It is a
// plausibility check, not full RFC 5322 validation.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account is a registered identity. Email is the unique, case-sensitive
// key exactly as stored; accounts are never mutated after creation.
type Account struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidateEmail checks that email is a plausible address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidInput, "email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("length", len(email)).
			Wrapf(ErrInvalidInput, "email exceeds %d characters", MaxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidInput, "email is not a valid address")
	}
	return nil
}

// ValidatePassword checks the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			Wrapf(ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicateAccount (wrapped)
	// when the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an account by its exact email.
	// Returns ErrNotFound (wrapped) when no such account exists.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
