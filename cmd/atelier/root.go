// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Atelier CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atelier",
		Short: "Atelier - session-authenticated project API",
		Long: `Atelier serves a cookie-session authenticated HTTP API for
account registration, login, and project management backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
