// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-dev/atelier/internal/auth"
	"github.com/atelier-dev/atelier/internal/project"
	"github.com/atelier-dev/atelier/pkg/errutil"
)

// errRateLimited marks requests rejected by the rate limiter.
var errRateLimited = errors.New("too many requests")

// statusFor maps domain errors to HTTP status and a stable, short client
// message. Internal detail never crosses the boundary; anything unmatched
// is a 500.
func statusFor(err error) (status int, msg string) {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "too many requests"

	// Missing account and wrong password collapse into one message so
	// responses do not reveal which part failed.
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, auth.ErrIncorrectPassword):
		return http.StatusUnauthorized, "invalid credentials"

	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"

	case errors.Is(err, auth.ErrDuplicateAccount):
		return http.StatusBadRequest, "account already exists"

	// An unreadable stored hash answers like bad input at the boundary;
	// respondError logs it server-side so operators see the data problem.
	case errors.Is(err, auth.ErrMalformedHash):
		return http.StatusBadRequest, "invalid request"

	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"

	case errors.Is(err, project.ErrNotFound):
		return http.StatusBadRequest, "project not found"

	case errors.Is(err, project.ErrConflict):
		return http.StatusBadRequest, "project was modified concurrently"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// respondError writes the mapped status and JSON error body and aborts the
// handler chain.
func respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError || errors.Is(err, auth.ErrMalformedHash) {
		errutil.LogError(slog.Default(), "request failed", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
