package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vidfriends/mediahub/internal/config"
	"github.com/vidfriends/mediahub/internal/db"
	"github.com/vidfriends/mediahub/internal/handlers"
	"github.com/vidfriends/mediahub/internal/httpserver"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/middleware"
)

// Run bootstraps the mediahub backend with the given command line arguments.
func Run(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mediahub",
		Short:         "Media sharing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:       "migrate [up|status]",
			Short:     "Apply or inspect database migrations",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{"up", "status"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrations(cmd.Context(), cmd.OutOrStdout(), args)
			},
		},
		&cobra.Command{
			Use:   "seed <name>",
			Short: "Load a seed file into the database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSeed(cmd.Context(), cmd.OutOrStdout(), args[0])
			},
		},
	)
	return root
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	var pool *pgxpool.Pool
	if cfg.Store != "memory" {
		pool, err = db.Connect(ctx, cfg.DatabaseURL, poolOptions(cfg.DB))
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	handlers.RegisterRoutes(router, deps)

	handler := middleware.RequestLogger(logger)(router)

	srv := httpserver.New(cfg.AppPort, handler, cfg.HTTP)

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.Store)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx := context.WithoutCancel(ctx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	cleanupCtx, cancel := context.WithTimeout(shutdownCtx, httpserver.ShutdownTimeout)
	defer cancel()
	if err := cleanup(cleanupCtx); err != nil {
		logger.Warn("failed to release dependencies", "error", err)
	}
	return runErr
}
