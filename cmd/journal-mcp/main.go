// Command journal-mcp serves the journal records as MCP tools over stdio.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sumalravindran/My-journal-new/internal/activity"
	"github.com/sumalravindran/My-journal-new/internal/config"
	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/store"
	"github.com/sumalravindran/My-journal-new/internal/tools"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[journal-mcp] ")

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "journal-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// config.Load also reads .env
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	gateway, closeStore, err := store.Open(cfg.Store, cfg.StatePath)
	if err != nil {
		return err
	}
	defer closeStore()

	s := server.NewMCPServer(
		"journal",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	if err := tools.RegisterAll(s, &tools.Dependencies{
		Gateway:     gateway,
		ActivityLog: activity.New(cfg.StatePath),
		Location:    loc,
	}); err != nil {
		return err
	}

	logging.Info("mcp", "serving %s store at %s", cfg.Store, cfg.StatePath)
	return server.ServeStdio(s)
}
