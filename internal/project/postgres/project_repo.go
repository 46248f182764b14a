// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/atelier-dev/atelier/internal/project"
)

// ProjectRepository implements project.Repository using PostgreSQL.
type ProjectRepository struct {
	pool poolIface
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(pool poolIface) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create stores a new project.
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (id, owner_email, name, description, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		p.ID,
		p.OwnerEmail,
		p.Name,
		p.Description,
		p.CreatedAt,
		p.LastUpdated,
	)
	if err != nil {
		return oops.Code("PROJECT_CREATE_FAILED").
			With("operation", "insert project").
			With("id", p.ID.String()).
			Wrap(err)
	}
	return nil
}

// List returns all projects, newest first.
func (r *ProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_email, name, description, created_at, last_updated
		FROM projects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("PROJECT_LIST_FAILED").
			With("operation", "list projects").
			Wrap(err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, oops.Code("PROJECT_SCAN_FAILED").
				With("operation", "scan project row").
				Wrap(err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("PROJECT_ROWS_ERROR").
			With("operation", "iterate project rows").
			Wrap(err)
	}

	return projects, nil
}

// Get retrieves a project by id.
func (r *ProjectRepository) Get(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_email, name, description, created_at, last_updated
		FROM projects
		WHERE id = $1
	`, id)

	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROJECT_NOT_FOUND").
			With("id", id.String()).
			Wrap(project.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROJECT_GET_FAILED").
			With("operation", "get project by id").
			With("id", id.String()).
			Wrap(err)
	}
	return p, nil
}

// Update applies the patch in a single statement guarded by the reference
// timestamp, which keeps the concurrency check atomic against other
// writers. Zero rows matched is disambiguated by an existence probe.
func (r *ProjectRepository) Update(ctx context.Context, id uuid.UUID, patch project.Patch, now time.Time) (*project.Project, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE projects
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    last_updated = $5
		WHERE id = $1 AND last_updated = $2
		RETURNING id, owner_email, name, description, created_at, last_updated
	`, id, patch.ReferenceTimestamp, patch.Name, patch.Description, now)

	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyMiss(ctx, id)
	}
	if err != nil {
		return nil, oops.Code("PROJECT_UPDATE_FAILED").
			With("operation", "update project").
			With("id", id.String()).
			Wrap(err)
	}
	return p, nil
}

// classifyMiss tells a missing project apart from a stale reference
// timestamp after an update matched zero rows.
func (r *ProjectRepository) classifyMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return oops.Code("PROJECT_UPDATE_FAILED").
			With("operation", "probe project existence").
			With("id", id.String()).
			Wrap(err)
	}
	if exists {
		return oops.Code("PROJECT_CONFLICT").
			With("id", id.String()).
			Wrap(project.ErrConflict)
	}
	return oops.Code("PROJECT_NOT_FOUND").
		With("id", id.String()).
		Wrap(project.ErrNotFound)
}

// Delete removes a project by id.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM projects WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("PROJECT_DELETE_FAILED").
			With("operation", "delete project").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROJECT_NOT_FOUND").
			With("id", id.String()).
			Wrap(project.ErrNotFound)
	}
	return nil
}

// scanProject scans a single row into a Project.
// Callers are responsible for handling pgx.ErrNoRows.
func scanProject(row pgx.Row) (*project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.OwnerEmail, &p.Name, &p.Description, &p.CreatedAt, &p.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PROJECT_SCAN_FAILED").
			With("operation", "scan project").
			Wrap(err)
	}
	return &p, nil
}

// scanProjectRow scans a row from a rows iterator into a Project.
func scanProjectRow(rows pgx.Rows) (*project.Project, error) {
	var p project.Project
	if err := rows.Scan(&p.ID, &p.OwnerEmail, &p.Name, &p.Description, &p.CreatedAt, &p.LastUpdated); err != nil {
		return nil, err //nolint:wrapcheck // Caller wraps with context-specific info
	}
	return &p, nil
}

// Compile-time interface check.
var _ project.Repository = (*ProjectRepository)(nil)
