// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmeddeb/gitfleet/pkg/blame"
)

func newBlameCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "blame <repo-path> <file>...",
		Short:        "Bulk per-line authorship attribution across many files",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlame(ctx, cmd, args[0], args[1:])
		},
	}
	return cmd
}

func runBlame(ctx context.Context, cmd *cobra.Command, repoPath string, files []string) error {
	engine := blame.New(blame.Config{}, newLogger())

	result, err := engine.BulkBlame(ctx, repoPath, files)
	if err != nil {
		return fmt.Errorf("bulk_blame: %w", err)
	}

	for _, f := range files {
		fr, ok := result[f]
		if !ok {
			continue
		}
		if fr.Err != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %s\n", f, fr.Err)
			continue
		}
		for _, l := range fr.Lines {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%-8.8s %-20s %d: %s\n", f, l.CommitID, l.AuthorName, l.FinalLineNo, l.Content)
		}
	}

	return nil
}
