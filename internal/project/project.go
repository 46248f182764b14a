// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

// Package project provides the project resource: ownership-scoped records
// with optimistic concurrency on updates.
package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// MaxNameLength caps project names.
const MaxNameLength = 200

// Sentinel errors for control flow.
var (
	// ErrNotFound is returned when no project exists for the given id.
	ErrNotFound = errors.New("project not found")

	// ErrConflict is returned when an update carries a stale reference
	// timestamp, meaning someone else modified the project in between.
	ErrConflict = errors.New("project modified concurrently")

	// ErrInvalidInput is returned when create or update input fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Project is a named resource owned by the account that created it.
// LastUpdated doubles as the optimistic concurrency version: clients echo
// it back on update and a mismatch means a concurrent edit won.
type Project struct {
	ID          uuid.UUID `json:"id"`
	OwnerEmail  string    `json:"owner_email"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Patch carries the optional fields of an update. Nil pointers mean
// "leave unchanged". ReferenceTimestamp must match the stored LastUpdated
// for the update to apply.
type Patch struct {
	Name               *string
	Description        *string
	ReferenceTimestamp time.Time
}

// ValidateName checks the project name policy.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code("PROJECT_INVALID_NAME").Wrapf(ErrInvalidInput, "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return oops.Code("PROJECT_INVALID_NAME").
			With("length", len(name)).
			Wrapf(ErrInvalidInput, "name exceeds %d characters", MaxNameLength)
	}
	return nil
}

// Repository manages project persistence.
type Repository interface {
	// Create stores a new project.
	Create(ctx context.Context, project *Project) error

	// List returns all projects, newest first.
	List(ctx context.Context) ([]*Project, error)

	// Get retrieves a project by id. Returns ErrNotFound (wrapped) when
	// no such project exists.
	Get(ctx context.Context, id uuid.UUID) (*Project, error)

	// Update applies the patch atomically against the reference timestamp
	// and returns the updated row. Zero rows matched is classified as
	// ErrNotFound or ErrConflict (both wrapped).
	Update(ctx context.Context, id uuid.UUID, patch Patch, now time.Time) (*Project, error)

	// Delete removes a project. Returns ErrNotFound (wrapped) when zero
	// rows matched, including repeat deletes.
	Delete(ctx context.Context, id uuid.UUID) error
}
