// Package cli exposes the ranking engine as the newsranker command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"NewsRanker/internal/app"
	"NewsRanker/internal/config"
	"NewsRanker/internal/logging"
)

// BuildInfo is stamped at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type runtime struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
	opts   app.Options
}

// NewRootCommand assembles the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, app.Options{})
}

func newRootCommand(info BuildInfo, opts app.Options) *cobra.Command {
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:           "newsranker",
		Short:         "Rank and deduplicate news for configured verticals",
		Long:          "newsranker collects news per entity, clusters duplicate coverage, scores stories and keeps only what has not been reported recently.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return rt.load()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", config.DefaultConfigPath(), "path to config file")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newRankCommand(rt),
		newStateCommand(rt),
		newDaemonCommand(rt),
		newVersionCommand(info),
	)
	return root
}

func (rt *runtime) load() error {
	if rt.envFile != "" {
		if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rt.envFile, err)
		}
	}

	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if rt.logLevel != "" {
		cfg.Logging.Level = rt.logLevel
	}

	logger, err := logging.New(cfg.Environment, cfg.Logging.Level)
	if err != nil {
		return err
	}
	rt.cfg, rt.logger = cfg, logger
	return nil
}

func (rt *runtime) app(ctx context.Context) (*app.Application, error) {
	return app.New(ctx, rt.cfg, rt.logger, rt.opts)
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsranker %s (commit: %s, built: %s)\n", info.Version, info.Commit, info.Date)
		},
	}
}
