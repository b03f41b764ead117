package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"scriptsum/internal/api"
	"scriptsum/internal/app"
	"scriptsum/internal/config"
	"scriptsum/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		log.Fatalf("scriptsum: %v", err)
	}
}

// run loads config, builds the summarizer and serves HTTP until ctx is done.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scriptsum", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional; uses $SCRIPTSUM_CONFIG, ./config.yaml or ~/.config/scriptsum/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg *config.AppConfig
	var err error
	path := *cfgPath
	if path == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging, os.Stderr)
	if path != "" {
		logger.Info("config loaded", "path", path)
	}

	svc, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build summarizer: %w", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("cleanup", "err", err)
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.Options{
		Service:        svc,
		Logger:         logger,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
