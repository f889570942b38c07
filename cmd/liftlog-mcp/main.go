package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/predict"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// liftlog-mcp serves the MCP tools over stdio, reading data from a remote
// LiftLog server's REST API.
func main() {
	serverURL := flag.String("server", os.Getenv("LIFTLOG_SERVER_URL"), "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	samples := flag.Int("max-samples", predict.DefaultMaxSamplesPerSet, "samples per set number used for predictions")
	defaultSets := flag.Int("default-sets", 3, "sets predicted when a request names none")
	maxSets := flag.Int("max-sets", 20, "largest set count a request may ask for")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	// stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL> [-max-samples N] [-default-sets N] [-max-sets N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	client := mcp.NewHTTPClient(*serverURL)
	s := mcp.New(client, predict.New(*samples), *defaultSets, *maxSets, Version, log)

	log.Info("mcp stdio server starting", "server", *serverURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
