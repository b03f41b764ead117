package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"scriptsum/internal/app"
	"scriptsum/internal/config"
	"scriptsum/internal/logging"
	"scriptsum/internal/mcpserver"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("scriptsum-mcp: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("scriptsum-mcp", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout carries the protocol
	logger := logging.New(cfg.Logging, os.Stderr)

	svc, cleanup, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("build summarizer: %w", err)
	}
	defer cleanup()

	return mcpserver.ServeStdio(mcpserver.New(svc, logger, version))
}
