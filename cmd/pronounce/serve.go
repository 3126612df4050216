package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/pronounce/internal/analyzer"
	"github.com/verte-zerg/pronounce/internal/model"
	"github.com/verte-zerg/pronounce/internal/observe"
	"github.com/verte-zerg/pronounce/internal/server"
)

const (
	defaultAddr        = ":8000"
	defaultMaxUploadMB = 10
	shutdownTimeout    = 15 * time.Second
)

var (
	serveAddr        string
	serveMaxUploadMB int
	serveNoSave      bool
	serveOrigins     []string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().IntVar(&serveMaxUploadMB, "max-upload-mb", defaultMaxUploadMB, "maximum upload size in MiB")
	cmd.Flags().BoolVar(&serveNoSave, "no-save", false, "do not record attempts")
	cmd.Flags().StringSliceVar(&serveOrigins, "allowed-origins", []string{"*"}, "CORS origins allowed to call the API (empty disables CORS)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyIntConfig(cmd, "max-upload-mb", &serveMaxUploadMB, fileCfg.Server.MaxUploadMB)
	if fileCfg.Server.AllowedOrigins != nil && !cmd.Flags().Changed("allowed-origins") {
		serveOrigins = *fileCfg.Server.AllowedOrigins
	}
	srvCfg := model.ServerConfig{
		Addr:           serveAddr,
		MaxUploadBytes: int64(serveMaxUploadMB) << 20,
		LogLevel:       logLevel,
		AllowedOrigins: serveOrigins,
	}
	if err := validateServerConfig(srvCfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "pronounce"})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	var opts []server.Option
	var recorder analyzer.Recorder
	if !serveNoSave {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		recorder = st
		opts = append(opts, server.WithPinger(st))
	}

	a, err := buildAnalyzer(cfg, recorder, true)
	if err != nil {
		return err
	}
	a.Metrics = observe.DefaultMetrics()
	opts = append(opts,
		server.WithMaxUploadBytes(srvCfg.MaxUploadBytes),
		server.WithMetrics(a.Metrics),
		server.WithAllowedOrigins(srvCfg.AllowedOrigins...),
	)

	httpServer := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           server.New(a, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("pronounce starting",
		"addr", srvCfg.Addr,
		"voice", cfg.Voice,
		"recognizer", cfg.RecognizerURL,
		"log_level", srvCfg.LogLevel,
		"save", !serveNoSave,
		"allowed_origins", srvCfg.AllowedOrigins,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("goodbye")
	return nil
}

func validateServerConfig(cfg model.ServerConfig) error {
	if cfg.Addr == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("--max-upload-mb must be > 0")
	}
	for _, origin := range cfg.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("--allowed-origins must not contain empty entries")
		}
	}
	return nil
}
