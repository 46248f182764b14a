// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

// Package httpapi exposes the session-authenticated project API over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelier-dev/atelier/internal/auth"
	"github.com/atelier-dev/atelier/internal/observability"
	"github.com/atelier-dev/atelier/internal/project"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "atelier_session"

// healthzTimeout bounds the database ping behind GET /healthz.
const healthzTimeout = 2 * time.Second

// Pinger reports whether the backing database answers. Satisfied by
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries the collaborators the router wires together.
// Limiter and Metrics may be nil; the corresponding middleware is skipped.
type Deps struct {
	Auth     *auth.Service
	Projects *project.Service
	Limiter  *auth.RateLimiter
	Pinger   Pinger
	Metrics  *observability.Metrics
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), requestMetrics(deps.Metrics))

	authHandler := newAuthHandler(deps.Auth, deps.Metrics)
	projectHandler := newProjectHandler(deps.Projects)

	r.GET("/healthz", healthz(deps.Pinger))

	limited := rateLimit(deps.Limiter, deps.Metrics)
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", limited, authHandler.Login)
	r.POST("/logout", limited, authHandler.Logout)

	projects := r.Group("/projects", requireSession(deps.Auth))
	projects.POST("", projectHandler.Create)
	projects.GET("", projectHandler.List)
	projects.GET("/:id", projectHandler.Get)
	projects.PUT("/:id", projectHandler.Update)
	projects.DELETE("/:id", projectHandler.Delete)

	return r
}

// healthz answers 200 when the database responds to a ping, 503 otherwise.
func healthz(pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthzTimeout)
		defer cancel()

		if pinger == nil || pinger.Ping(ctx) != nil {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ok")
	}
}
