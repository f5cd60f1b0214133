// Package cli wires the glassinv commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/vbonduro/glassinv/internal/config"
	"github.com/vbonduro/glassinv/internal/logging"
	"github.com/vbonduro/glassinv/internal/repository"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  *config.Config
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Flags override values from cfg.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "glassinv",
		Short: "Glass inventory tracker",
		Long:  "Tracks glass stock across storage locations, along with project plans and logs.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "storage driver (sqlite|memory)")
	cmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLocationsCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))

	return cmd
}

// logger returns a JSON logger on the command's stderr. Verbose forces debug.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := o.Config.LogLevel
	if o.Verbose {
		level = "debug"
	}
	return logging.NewWriter(cmd.ErrOrStderr(), level)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func (o *RootOptions) openRepository(ctx context.Context) (*repository.Set, error) {
	set, err := repository.Open(ctx, repository.Options{
		Driver: repository.Driver(o.Config.StorageDriver),
		Path:   o.Config.DBPath,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open repository", err)
	}
	return set, nil
}
