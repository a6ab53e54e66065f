// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Fintrack CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fintrack",
		Short: "Fintrack - identity and session service",
		Long: `Fintrack serves account registration, login, email one-time
passwords and session tokens for the Fintrack finance tracker.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
