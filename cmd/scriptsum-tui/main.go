package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"scriptsum/internal/client"
	"scriptsum/internal/tui"
)

func main() {
	_ = godotenv.Load()

	addr := os.Getenv("SCRIPTSUM_URL")
	if addr == "" {
		addr = "http://localhost:5000"
	}
	var newSession bool
	var timeout time.Duration
	flag.StringVar(&addr, "addr", addr, "Base URL of the scriptsum server")
	flag.BoolVar(&newSession, "new-session", false, "Use a private session instead of the shared one")
	flag.DurationVar(&timeout, "timeout", 3*time.Minute, "Per-summary timeout")
	flag.Parse()

	c := client.New(addr, timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := c.Health(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "server at %s is not reachable: %v\n", addr, err)
		os.Exit(1)
	}
	if newSession {
		if _, err := c.NewSession(ctx); err != nil {
			cancel()
			log.Fatalf("create session: %v", err)
		}
	}
	cancel()

	if _, err := tea.NewProgram(tui.New(c, timeout), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
