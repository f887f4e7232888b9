// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	verbose bool
	debug   bool
	quiet   bool

	tokenFile string
)

func newRootCmd(ctx context.Context, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gitfleet",
		Short: "Bulk, concurrent analysis of Git repositories hosted on third-party forges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newVersionCmd(version))
	cmd.AddCommand(newCloneCmd(ctx))
	cmd.AddCommand(newBlameCmd(ctx))
	cmd.AddCommand(newCommitsCmd())
	cmd.AddCommand(newRepoCmd(ctx))

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (shows all log levels)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs except critical errors")
	cmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "YAML file of {name, token} credentials (default: $HOME/.gitfleet/tokens.yaml)")

	_ = viper.BindPFlag("tokens.file", cmd.PersistentFlags().Lookup("token-file"))

	return cmd
}

func newLogger() *zap.Logger {
	var cfg zap.Config
	switch {
	case quiet:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	case debug:
		cfg = zap.NewDevelopmentConfig()
	case verbose:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Execute invokes the command.
func Execute(ctx context.Context, version string) error {
	if err := newRootCmd(ctx, version).Execute(); err != nil {
		return fmt.Errorf("error executing root command: %w", err)
	}
	return nil
}
