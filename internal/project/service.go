// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Service provides project operations on top of a Repository.
type Service struct {
	projects Repository
}

// NewService creates a new Service.
func NewService(projects Repository) *Service {
	return &Service{projects: projects}
}

// nowUTC returns the current time truncated to microseconds, matching
// PostgreSQL timestamptz precision so stored timestamps round-trip exactly
// through the optimistic concurrency check.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Create stores a new project owned by the given principal.
func (s *Service) Create(ctx context.Context, ownerEmail, name string, description *string) (*Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if ownerEmail == "" {
		return nil, oops.Code("PROJECT_INVALID_OWNER").Wrapf(ErrInvalidInput, "owner cannot be empty")
	}

	now := nowUTC()
	project := &Project{
		ID:          uuid.New(),
		OwnerEmail:  ownerEmail,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, oops.Code("PROJECT_CREATE_FAILED").
			With("operation", "persist project").
			Wrap(err)
	}
	return project, nil
}

// List returns all projects. Visibility is shared across authenticated
// principals; callers must still hold a valid session.
func (s *Service) List(ctx context.Context) ([]*Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, oops.Code("PROJECT_LIST_FAILED").Wrap(err)
	}
	return projects, nil
}

// Get retrieves a project by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.projects.Get(ctx, id)
}

// Update applies the patch when the reference timestamp still matches the
// stored LastUpdated, advancing LastUpdated to now. Stale references
// surface ErrConflict so the client can re-read and retry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Project, error) {
	if patch.Name != nil {
		if err := ValidateName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.ReferenceTimestamp.IsZero() {
		return nil, oops.Code("PROJECT_INVALID_REFERENCE").
			Wrapf(ErrInvalidInput, "reference timestamp is required")
	}

	return s.projects.Update(ctx, id, patch, nowUTC())
}

// Delete removes a project by id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.projects.Delete(ctx, id)
}
