// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bmeddeb/gitfleet/pkg/manager"
	"github.com/bmeddeb/gitfleet/pkg/provider"
)

func newRepoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "repo",
		Short:        "Query repository metadata through the provider client",
		SilenceUsage: true,
	}

	cmd.AddCommand(newRepoShowCmd(ctx))
	cmd.AddCommand(newRepoWhoamiCmd(ctx))

	return cmd
}

func newRepoShowCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "show <owner/name>",
		Short:        "Show repository metadata",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, name, ok := strings.Cut(args[0], "/")
			if !ok {
				return fmt.Errorf("expected owner/name, got %q", args[0])
			}

			client, err := buildProvider(ctx)
			if err != nil {
				return err
			}

			repo, err := client.FetchRepository(ctx, owner, name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\ndefault branch: %s\nstars: %d forks: %d\n",
				repo.FullName, repo.Description, repo.DefaultBranch, repo.Stars, repo.Forks)
			return nil
		},
	}
}

func newRepoWhoamiCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "whoami",
		Short:        "Show the authenticated user for the configured credential",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := buildProvider(ctx)
			if err != nil {
				return err
			}

			profile, err := client.FetchUserInfo(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) <%s>\n", profile.Login, profile.Name, profile.Email)
			return nil
		},
	}
}

func buildProvider(ctx context.Context) (*provider.Client, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	m := manager.New(nil, creds, manager.Config{}, newLogger())

	client, ok := m.Provider(ctx)
	if !ok {
		return nil, fmt.Errorf("no credentials configured; set --token-file or $HOME/.gitfleet/tokens.yaml")
	}

	return client, nil
}
