package main

import (
	"fmt"
	"os"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}

	server := mcp.NewServer(cfg.ServerURL, cfg.APIKey)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %s\n", err)
		os.Exit(1)
	}
}
