// Package cmd provides the CLI commands for litsearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/litsearch/internal/config"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
	"github.com/Aman-CERP/litsearch/internal/logging"
	"github.com/Aman-CERP/litsearch/internal/profiling"
	"github.com/Aman-CERP/litsearch/pkg/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
	json       bool
	profile    profiling.Options

	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
	session *profiling.Session
}

// NewRootCmd creates the root command for the litsearch CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "litsearch",
		Short: "Full-text search over a literary archive",
		Long: `litsearch indexes poems, book sections, short stories, plays,
dialogue lines, characters and authors from the catalog database, and
answers phrase, fuzzy and year-range searches with highlighted context.

Run 'litsearch reindex' once against the catalog, then search from the
command line or with 'litsearch serve'.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: opts.setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.session != nil {
				if err := opts.session.Stop(); err != nil && opts.logger != nil {
					opts.logger.Warn("profile_write_failed", slog.String("error", err.Error()))
				}
				opts.session = nil
			}
			if opts.cleanup != nil {
				opts.cleanup()
				opts.cleanup = nil
			}
		},
	}
	cmd.SetVersionTemplate("litsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ./"+config.DefaultFileName+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print JSON instead of formatted text")
	cmd.PersistentFlags().StringVar(&opts.profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newReindexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newBasicCmd(opts))
	cmd.AddCommand(newExistsCmd(opts))
	cmd.AddCommand(newAuthorsCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	cmd.AddCommand(newInitCmd())

	return cmd
}

// setup loads configuration and installs the logger.
func (o *globalOptions) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return reportError(cmd, err)
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.File,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: o.debug,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)

	o.cfg = cfg
	o.logger = logger
	o.cleanup = cleanup

	if o.profile.Enabled() {
		session, err := profiling.Start(o.profile)
		if err != nil {
			return reportError(cmd, err)
		}
		o.session = session
	}
	return nil
}

// reportError prints err in CLI form and returns it so cobra exits non-zero.
func reportError(cmd *cobra.Command, err error) error {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), lserrors.FormatForCLI(err))
	cmd.SilenceErrors = true
	return err
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
