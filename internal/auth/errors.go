// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package auth

import "errors"

// Sentinel errors for control flow. Services and repositories wrap these
// with oops codes; callers match with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAccount is returned when registering an email that is
	// already taken.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrIncorrectPassword is returned when a password does not match the
	// stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrMalformedHash is returned when a stored password hash cannot be
	// parsed. Distinct from ErrIncorrectPassword: the record is damaged,
	// not the credentials.
	ErrMalformedHash = errors.New("malformed password hash")

	// ErrUnauthenticated is returned when no valid session backs a request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidInput is returned when registration input fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
