// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-dev/atelier/internal/project"
	"github.com/atelier-dev/atelier/internal/project/postgres"
)

var projectColumns = []string{"id", "owner_email", "name", "description", "created_at", "last_updated"}

func testProject() *project.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	desc := "a workspace"
	return &project.Project{
		ID:          uuid.New(),
		OwnerEmail:  "owner@example.com",
		Name:        "Atelier",
		Description: &desc,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func projectRow(p *project.Project) *pgxmock.Rows {
	return pgxmock.NewRows(projectColumns).
		AddRow(p.ID, p.OwnerEmail, p.Name, p.Description, p.CreatedAt, p.LastUpdated)
}

func TestProjectRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	p := testProject()

	t.Run("inserts the project", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO projects`).
			WithArgs(p.ID, p.OwnerEmail, p.Name, p.Description, p.CreatedAt, p.LastUpdated).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewProjectRepository(mock)
		require.NoError(t, repo.Create(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database errors are wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO projects`).
			WithArgs(p.ID, p.OwnerEmail, p.Name, p.Description, p.CreatedAt, p.LastUpdated).
			WillReturnError(errors.New("connection refused"))

		repo := postgres.NewProjectRepository(mock)
		assert.Error(t, repo.Create(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectRepositoryList(t *testing.T) {
	ctx := context.Background()

	t.Run("returns all projects", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		first := testProject()
		second := testProject()
		mock.ExpectQuery(`SELECT id, owner_email, name, description, created_at, last_updated`).
			WillReturnRows(pgxmock.NewRows(projectColumns).
				AddRow(first.ID, first.OwnerEmail, first.Name, first.Description, first.CreatedAt, first.LastUpdated).
				AddRow(second.ID, second.OwnerEmail, second.Name, second.Description, second.CreatedAt, second.LastUpdated))

		repo := postgres.NewProjectRepository(mock)
		projects, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, first.ID, projects[0].ID)
		assert.Equal(t, second.ID, projects[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table yields empty list", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, owner_email, name, description, created_at, last_updated`).
			WillReturnRows(pgxmock.NewRows(projectColumns))

		repo := postgres.NewProjectRepository(mock)
		projects, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, projects)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row error surfaces", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		p := testProject()
		mock.ExpectQuery(`SELECT id, owner_email, name, description, created_at, last_updated`).
			WillReturnRows(pgxmock.NewRows(projectColumns).
				AddRow(p.ID, p.OwnerEmail, p.Name, p.Description, p.CreatedAt, p.LastUpdated).
				RowError(0, errors.New("read failed")))

		repo := postgres.NewProjectRepository(mock)
		_, err = repo.List(ctx)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectRepositoryGet(t *testing.T) {
	ctx := context.Background()
	p := testProject()

	t.Run("returns the project", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, owner_email, name, description, created_at, last_updated`).
			WithArgs(p.ID).
			WillReturnRows(projectRow(p))

		repo := postgres.NewProjectRepository(mock)
		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, p.Name, got.Name)
		require.NotNil(t, got.Description)
		assert.Equal(t, *p.Description, *got.Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing project maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT id, owner_email, name, description, created_at, last_updated`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(projectColumns))

		repo := postgres.NewProjectRepository(mock)
		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, project.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectRepositoryUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the updated row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		p := testProject()
		now := time.Now().UTC().Truncate(time.Microsecond)
		newName := "Renamed"

		updated := *p
		updated.Name = newName
		updated.LastUpdated = now

		mock.ExpectQuery(`UPDATE projects`).
			WithArgs(p.ID, p.LastUpdated, &newName, (*string)(nil), now).
			WillReturnRows(projectRow(&updated))

		repo := postgres.NewProjectRepository(mock)
		got, err := repo.Update(ctx, p.ID, project.Patch{
			Name:               &newName,
			ReferenceTimestamp: p.LastUpdated,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, newName, got.Name)
		assert.Equal(t, now, got.LastUpdated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows with existing project maps to conflict", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		p := testProject()
		now := time.Now().UTC().Truncate(time.Microsecond)
		stale := p.LastUpdated.Add(-time.Minute)
		newName := "Renamed"

		mock.ExpectQuery(`UPDATE projects`).
			WithArgs(p.ID, stale, &newName, (*string)(nil), now).
			WillReturnRows(pgxmock.NewRows(projectColumns))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		repo := postgres.NewProjectRepository(mock)
		_, err = repo.Update(ctx, p.ID, project.Patch{
			Name:               &newName,
			ReferenceTimestamp: stale,
		}, now)
		assert.ErrorIs(t, err, project.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows with absent project maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		now := time.Now().UTC().Truncate(time.Microsecond)
		reference := now.Add(-time.Minute)
		newName := "Renamed"

		mock.ExpectQuery(`UPDATE projects`).
			WithArgs(id, reference, &newName, (*string)(nil), now).
			WillReturnRows(pgxmock.NewRows(projectColumns))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		repo := postgres.NewProjectRepository(mock)
		_, err = repo.Update(ctx, id, project.Patch{
			Name:               &newName,
			ReferenceTimestamp: reference,
		}, now)
		assert.ErrorIs(t, err, project.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectRepositoryDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the project", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM projects`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := postgres.NewProjectRepository(mock)
		require.NoError(t, repo.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM projects`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := postgres.NewProjectRepository(mock)
		err = repo.Delete(ctx, id)
		assert.ErrorIs(t, err, project.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
