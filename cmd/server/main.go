package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/iudanet/gophergram/internal/flagx"
	server "github.com/iudanet/gophergram/internal/server"
	"github.com/iudanet/gophergram/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-version"}))

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	app, err := server.NewApp(ctx, cfg, Version)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("Gophergram Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
