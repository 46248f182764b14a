// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/atelier-dev/atelier/internal/auth"
	"github.com/atelier-dev/atelier/internal/observability"
	"github.com/atelier-dev/atelier/pkg/errutil"
)

// authHandler serves signup, login and logout.
type authHandler struct {
	auth    *auth.Service
	metrics *observability.Metrics
}

func newAuthHandler(authService *auth.Service, metrics *observability.Metrics) *authHandler {
	return &authHandler{auth: authService, metrics: metrics}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a new account.
func (h *authHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, oops.Code("HTTP_BAD_BODY").Wrapf(auth.ErrInvalidInput, "malformed request body"))
		return
	}

	if err := h.auth.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		errutil.LogError(slog.Default(), "signup failed", err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Login authenticates credentials and sets the session cookie.
func (h *authHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, oops.Code("HTTP_BAD_BODY").Wrapf(auth.ErrInvalidInput, "malformed request body"))
		return
	}

	session, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.countLogin("failure")
		respondError(c, err)
		return
	}
	h.countLogin("success")

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"email": session.AccountEmail})
}

// Logout clears the session behind the cookie. Idempotent: a missing or
// stale cookie still answers 200 with the cookie cleared.
func (h *authHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(SessionCookieName)

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusOK)
}

func (h *authHandler) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}
