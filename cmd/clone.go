// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bmeddeb/gitfleet/pkg/clone"
	"github.com/bmeddeb/gitfleet/pkg/manager"
)

type cloneOptions struct {
	maxWorkers int
	baseDir    string
}

func defaultCloneOptions() *cloneOptions {
	return &cloneOptions{maxWorkers: runtime.NumCPU()}
}

func newCloneCmd(ctx context.Context) *cobra.Command {
	o := defaultCloneOptions()

	cmd := &cobra.Command{
		Use:          "clone [urls...]",
		Short:        "Clone one or more repositories with bounded concurrency",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(ctx, cmd, args)
		},
	}

	cmd.Flags().IntVarP(&o.maxWorkers, "max-workers", "w", o.maxWorkers, "maximum concurrent clones")
	cmd.Flags().StringVar(&o.baseDir, "base-dir", "", "parent directory for per-repository working trees (default: OS temp dir)")

	return cmd
}

func (o *cloneOptions) run(ctx context.Context, cmd *cobra.Command, urls []string) error {
	creds, err := loadCredentials()
	if err != nil {
		return err
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	m := manager.New(urls, creds, manager.Config{MaxWorkers: o.maxWorkers, BaseDir: o.baseDir}, logger)

	bar := progressbar.NewOptions(len(urls)*100,
		progressbar.OptionSetDescription("cloning"),
		progressbar.OptionSetWriter(cmd.OutOrStdout()),
	)

	done := make(chan struct{})
	go pollProgress(m, done, bar)

	err = m.SubmitAll(ctx)
	close(done)
	if err != nil {
		return fmt.Errorf("submit_all: %w", err)
	}

	snap := m.SnapshotTasks()
	for _, url := range urls {
		t, ok := snap[url]
		if !ok {
			continue
		}
		switch t.Status.Tag {
		case clone.Completed:
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tcompleted\t%s\n", url, t.TempDir)
		case clone.Failed:
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tfailed\t%s\n", url, t.Status.Message)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", url, t.Status.Tag)
		}
	}

	return nil
}

func pollProgress(m *manager.Manager, done <-chan struct{}, bar *progressbar.ProgressBar) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = bar.Finish()
			return
		case <-ticker.C:
			total := 0
			for _, t := range m.SnapshotTasks() {
				switch t.Status.Tag {
				case clone.Completed:
					total += 100
				case clone.Cloning:
					total += t.Status.Progress
				}
			}
			_ = bar.Set(total)
		}
	}
}
