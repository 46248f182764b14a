// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "atelier", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"], "serve subcommand should be registered")
	assert.True(t, names["migrate"], "migrate subcommand should be registered")

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestServeCmdFlags(t *testing.T) {
	cmd := NewServeCmd()

	for _, name := range []string{
		"addr",
		"metrics-addr",
		"database-url",
		"log-format",
		"session-idle-timeout",
		"session-sweep-interval",
		"login-max-attempts",
		"login-window",
	} {
		assert.NotNilf(t, cmd.Flags().Lookup(name), "flag %s should be registered", name)
	}
}

func TestMigrateCmdSubcommands(t *testing.T) {
	cmd := NewMigrateCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"up", "down", "steps", "force", "status"} {
		assert.Truef(t, names[name], "%s subcommand should be registered", name)
	}
}

func TestMigrateUpRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := runCommand(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestMigrateDownRequiresConfirmation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/atelier")

	_, err := runCommand(t, "migrate", "down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestMigrateStepsRejectsNonNumeric(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/atelier")

	_, err := runCommand(t, "migrate", "steps", "abc")
	require.Error(t, err)
}

func TestMigrateForceRejectsNonNumeric(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/atelier")

	_, err := runCommand(t, "migrate", "force", "abc")
	require.Error(t, err)
}
