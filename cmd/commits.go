// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmeddeb/gitfleet/pkg/commit"
)

func newCommitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "commits <repo-path>",
		Short:        "Extract full commit history with additions/deletions",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommits(cmd, args[0])
		},
	}
}

func runCommits(cmd *cobra.Command, repoPath string) error {
	extractor := commit.New(newLogger())

	records, err := extractor.ExtractCommits(repoPath)
	if err != nil {
		return fmt.Errorf("extract_commits: %w", err)
	}

	for _, r := range records {
		merge := ""
		if r.IsMerge {
			merge = " (merge)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t+%d -%d\t%s%s\n", r.SHA[:8], r.Additions, r.Deletions, r.Message, merge)
	}

	return nil
}
