// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

// Package auth provides account credentials, server-side sessions, and
// login rate limiting for Atelier.
package auth
