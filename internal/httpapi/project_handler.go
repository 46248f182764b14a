// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/atelier-dev/atelier/internal/project"
)

// projectHandler serves the project CRUD routes. All routes sit behind
// requireSession, so a principal is always in context.
type projectHandler struct {
	projects *project.Service
}

func newProjectHandler(projects *project.Service) *projectHandler {
	return &projectHandler{projects: projects}
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type updateProjectRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	UpdateTimestamp time.Time `json:"update_timestamp" binding:"required"`
}

// Create stores a new project owned by the session principal.
func (h *projectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, oops.Code("HTTP_BAD_BODY").Wrapf(project.ErrInvalidInput, "malformed request body"))
		return
	}

	p, err := h.projects.Create(c.Request.Context(), principalFrom(c), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// List returns all projects, newest first.
func (h *projectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// Get returns one project by id.
func (h *projectHandler) Get(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update applies a partial update guarded by the reference timestamp.
func (h *projectHandler) Update(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, oops.Code("HTTP_BAD_BODY").Wrapf(project.ErrInvalidInput, "malformed request body"))
		return
	}

	p, err := h.projects.Update(c.Request.Context(), id, project.Patch{
		Name:               req.Name,
		Description:        req.Description,
		ReferenceTimestamp: req.UpdateTimestamp,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete removes a project by id.
func (h *projectHandler) Delete(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// projectID parses the :id route parameter, answering 400 on garbage.
func (h *projectHandler) projectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, oops.Code("HTTP_BAD_ID").
			With("id", c.Param("id")).
			Wrapf(project.ErrInvalidInput, "invalid project id"))
		return uuid.UUID{}, false
	}
	return id, true
}
