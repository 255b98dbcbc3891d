package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jrdheeraj/tirupati-geoai/internal/api"
	"github.com/Jrdheeraj/tirupati-geoai/internal/config"
	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/repository"
	"github.com/Jrdheeraj/tirupati-geoai/internal/infrastructure/geoaiclient"
	"github.com/Jrdheeraj/tirupati-geoai/internal/logging"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "geoai",
		Short:         "Land-use change insights for the GeoAI dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newServeCmd(), newInsightsCmd())
	return root
}

// app is everything a command needs, built from config.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.InsightService
	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	client := geoaiclient.NewHTTPClient(cfg.BackendURL, geoaiclient.Options{
		Timeout:       cfg.HTTPTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		RateLimit:     cfg.RateLimitRPS,
		Logger:        logger.Named("geoaiclient"),
	})

	var recorder repository.InsightRecorder
	if cfg.RecordInsights {
		db, err := repository.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open insight store: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		recorder = repository.NewSQLInsightRecorder(db)
		logger.Info("recording insight runs", zap.String("driver", db.DriverName()))
	}

	a.service = core.NewInsightService(client, recorder, core.Taxonomy{
		Labels:  cfg.Labels(),
		Insight: cfg.InsightConfig(),
		Periods: cfg.Periods(),
	}, logger.Named("insights"))
	a.closers = append(a.closers, func() error {
		a.service.Close()
		return nil
	})
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve insights over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := api.NewHandler(a.service, a.cfg.PlaceName, a.logger.Named("api"))
			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server",
					zap.String("addr", a.cfg.ListenAddr),
					zap.String("backend", a.cfg.BackendURL))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}
}
