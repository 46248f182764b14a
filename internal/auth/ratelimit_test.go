// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/atelier-dev/atelier/internal/auth"
)

func TestRateLimiter_AllowUnderCeiling(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 3, Window: time.Minute})
	defer rl.Close()

	for i := 0; i < 3; i++ {
		allowed, retryAfter := rl.Allow("10.0.0.1")
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
		assert.Zero(t, retryAfter)
	}
}

func TestRateLimiter_RejectsOverCeiling(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 3, Window: time.Minute})
	defer rl.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		require.True(t, allowed)
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 1, Window: time.Minute})
	defer rl.Close()

	allowed, _ := rl.Allow("10.0.0.1")
	require.True(t, allowed)
	allowed, _ = rl.Allow("10.0.0.1")
	require.False(t, allowed)

	// A different client is unaffected
	allowed, _ = rl.Allow("10.0.0.2")
	assert.True(t, allowed)
}

func TestRateLimiter_WindowRollover(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 1, Window: 50 * time.Millisecond})
	defer rl.Close()

	allowed, _ := rl.Allow("10.0.0.1")
	require.True(t, allowed)
	allowed, _ = rl.Allow("10.0.0.1")
	require.False(t, allowed)

	time.Sleep(60 * time.Millisecond)

	allowed, _ = rl.Allow("10.0.0.1")
	assert.True(t, allowed, "counter should reset after the window passes")
}

func TestRateLimiter_RejectedAttemptsStillCount(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 2, Window: time.Minute})
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")

	// Every further call inside the window stays rejected
	for i := 0; i < 5; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		assert.False(t, allowed)
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 50, Window: time.Minute})
	defer rl.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := rl.Allow("10.0.0.1"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowedCount, "exactly the ceiling should pass")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{MaxAttempts: 5, Window: 10 * time.Millisecond})
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	require.Equal(t, 2, rl.ClientCount())

	time.Sleep(20 * time.Millisecond)
	rl.Cleanup(10 * time.Millisecond)

	assert.Zero(t, rl.ClientCount())
}

func TestRateLimiter_DefaultsApplied(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimiterConfig{})
	defer rl.Close()

	// Default ceiling of 5: the sixth attempt is rejected
	for i := 0; i < auth.DefaultMaxAttempts; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		require.True(t, allowed)
	}
	allowed, _ := rl.Allow("10.0.0.1")
	assert.False(t, allowed)
}

func TestRateLimiter_CloseStopsCleanupGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := auth.NewRateLimiter(auth.RateLimiterConfig{CleanupInterval: time.Millisecond})
	rl.Allow("10.0.0.1")
	rl.Close()
}
