package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbonduro/glassinv/internal/config"
	"github.com/vbonduro/glassinv/internal/imagestore"
	"github.com/vbonduro/glassinv/internal/imagestore/local"
	s3store "github.com/vbonduro/glassinv/internal/imagestore/s3"
	"github.com/vbonduro/glassinv/internal/legacy"
	"github.com/vbonduro/glassinv/internal/logging"
	"github.com/vbonduro/glassinv/internal/repository"
	"github.com/vbonduro/glassinv/internal/service"
	"github.com/vbonduro/glassinv/internal/web"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the JSON API server.

The legacy migration runs first unless RUN_LEGACY_MIGRATION=false.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
	cmd.Flags().StringVar(&rootOpts.Config.ListenAddr, "listen", rootOpts.Config.ListenAddr, "address to listen on")
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, cleanup, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	set, err := opts.openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := set.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	server, err := buildServer(ctx, cfg, set, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Run(runCtx, cfg.ListenAddr); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}

// buildServer runs the legacy migration when enabled and wires the services
// behind the HTTP API.
func buildServer(ctx context.Context, cfg *config.Config, set *repository.Set, logger *slog.Logger) (*web.Server, error) {
	if cfg.RunLegacyMigration {
		m := legacy.NewMigrator(set.ProjectPlans, set.ProjectLogs, set.Settings, logger)
		if _, err := m.Run(ctx); err != nil {
			return nil, fmt.Errorf("legacy migration: %w", err)
		}
	}

	blobs, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	inv := service.NewInventoryService(set.GlassItems, set.Inventory, set.Locations, set.Tags, logger)
	images := service.NewImageService(set.Images, blobs, logger)
	tags := service.NewTagService(set.Tags, logger)
	return web.NewServer(inv, images, tags, logger), nil
}

func newImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imagestore.ImageStore, error) {
	switch cfg.ImageBackend {
	case "s3":
		logger.Info("using s3 image backend", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.Endpoint)
		return s3store.New(ctx, s3store.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	case "local", "":
		logger.Info("using local image backend", "path", cfg.ImageLocalPath)
		return local.New(cfg.ImageLocalPath, logger)
	default:
		return nil, fmt.Errorf("unknown image backend %q", cfg.ImageBackend)
	}
}
