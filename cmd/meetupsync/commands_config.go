// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/meetupsync/internal/config"
)

func buildConfigCmd(a *app) *cobra.Command {
	var listEnv bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and the
environment have been applied. With --env, list the environment variables
the loader reads instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listEnv {
				for _, name := range config.EnvVars() {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
						return err
					}
				}
				return nil
			}
			return printJSON(cmd.OutOrStdout(), a.cfg)
		},
	}
	cmd.Flags().BoolVar(&listEnv, "env", false, "List recognized environment variables")
	return cmd
}
