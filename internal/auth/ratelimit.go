// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package auth

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default rate limiting values.
const (
	// DefaultMaxAttempts is the number of authentication attempts allowed
	// per client inside one window.
	DefaultMaxAttempts = 5

	// DefaultWindow is the length of the fixed counting window.
	DefaultWindow = time.Minute

	// DefaultCleanupInterval is the interval at which the background
	// goroutine removes stale client counters.
	DefaultCleanupInterval = 5 * time.Minute
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// MaxAttempts is the per-window ceiling.
	// Defaults to DefaultMaxAttempts (5) if zero or negative.
	MaxAttempts int

	// Window is the fixed counting window length.
	// Defaults to DefaultWindow (1 minute) if zero.
	Window time.Duration

	// CleanupInterval is the interval at which background cleanup runs.
	// Defaults to DefaultCleanupInterval (5 minutes) if zero.
	CleanupInterval time.Duration
}

// clientWindow tracks attempt counting state for a single client identity.
type clientWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter implements per-client fixed-window counting. The counter is
// held in process memory keyed by client identity (source IP), so limits
// do not survive restarts and are not shared across replicas.
// It is safe for concurrent use.
//
// The RateLimiter runs a background goroutine to periodically clean up
// stale clients. Call Close() to stop the goroutine and release resources.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientWindow
	maxAttempts int
	window      time.Duration

	// Background cleanup
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Metrics gauge for client count (nil if no registry provided)
	clientGauge prometheus.Gauge
}

// NewRateLimiter creates a new rate limiter with the given configuration.
// It starts a background goroutine for cleanup. Call Close() to stop it.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter(cfg, nil)
}

// NewRateLimiterWithRegistry creates a new rate limiter and registers a
// client count gauge with the provided Prometheus registry.
// It starts a background goroutine for cleanup. Call Close() to stop it.
func NewRateLimiterWithRegistry(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	return newRateLimiter(cfg, reg)
}

func newRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	rl := &RateLimiter{
		clients:     make(map[string]*clientWindow),
		maxAttempts: maxAttempts,
		window:      window,
		stopChan:    make(chan struct{}),
	}

	if reg != nil {
		rl.clientGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atelier_ratelimiter_clients",
			Help: "Current number of tracked rate limiter clients",
		})
		reg.MustRegister(rl.clientGauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cleanupInterval)

	return rl
}

// Allow records an attempt for the given client identity and reports
// whether it is under the per-window ceiling. Returns (allowed, retryAfter)
// where retryAfter is the time until the current window rolls over
// (zero when allowed).
//
// Every call counts, including rejected ones. The counter resets when the
// window boundary passes.
func (rl *RateLimiter) Allow(clientID string) (allowed bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	w, exists := rl.clients[clientID]
	if !exists || now.Sub(w.windowStart) >= rl.window {
		w = &clientWindow{windowStart: now}
		rl.clients[clientID] = w
	}

	w.count++
	if w.count > rl.maxAttempts {
		return false, w.windowStart.Add(rl.window).Sub(now)
	}

	return true, 0
}

// ClientCount returns the number of tracked clients. Useful for testing and
// monitoring.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Cleanup removes clients whose window started more than maxAge ago.
// This is called automatically by the background goroutine, but can also
// be called manually if immediate cleanup is desired.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-maxAge)
	for clientID, w := range rl.clients {
		if w.windowStart.Before(threshold) {
			delete(rl.clients, clientID)
		}
	}

	if rl.clientGauge != nil {
		rl.clientGauge.Set(float64(len(rl.clients)))
	}
}

// cleanupLoop runs periodic cleanup in the background.
func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			// A window older than the window length can no longer reject
			rl.Cleanup(rl.window)
		}
	}
}

// Close stops the background cleanup goroutine and releases resources.
// It blocks until the goroutine has stopped.
func (rl *RateLimiter) Close() {
	close(rl.stopChan)
	rl.wg.Wait()
}
