// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package httpapi

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelier-dev/atelier/internal/auth"
	"github.com/atelier-dev/atelier/internal/observability"
)

// principalKey is the gin context key holding the authenticated email.
const principalKey = "atelier.principal"

// requireSession gates a route on a live session. The cookie token is
// resolved to its session, which also slides the idle window forward, and
// the bound principal lands in the request context. Handlers read the
// principal from context only, never from client-supplied fields.
func requireSession(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil {
			respondError(c, auth.ErrUnauthenticated)
			return
		}

		session, err := authService.TouchAndRead(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(principalKey, session.AccountEmail)
		c.Next()
	}
}

// principalFrom returns the authenticated email placed by requireSession.
func principalFrom(c *gin.Context) string {
	principal, _ := c.Get(principalKey)
	email, _ := principal.(string)
	return email
}

// rateLimit rejects clients over the per-window attempt ceiling with 429
// and a Retry-After hint. Keyed by source IP.
func rateLimit(limiter *auth.RateLimiter, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, retryAfter := limiter.Allow(c.ClientIP())
		if !allowed {
			if metrics != nil {
				metrics.RateLimitedTotal.Inc()
			}
			seconds := int64(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.FormatInt(seconds, 10))
			respondError(c, errRateLimited)
			return
		}
		c.Next()
	}
}

// requestLogger emits one structured log line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// requestMetrics counts requests by method, route and status.
func requestMetrics(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Inc()
	}
}
