package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fusevec/fusevec/api"
	"github.com/fusevec/fusevec/config"
	"github.com/fusevec/fusevec/core"
	"github.com/fusevec/fusevec/index"
	"github.com/fusevec/fusevec/persistence"
)

func main() {
	// Parse command line flags
	var (
		configPath = flag.String("config", "", "Path to YAML configuration file")
		host       = flag.String("host", "", "Host to listen on (overrides config)")
		port       = flag.Int("port", 0, "Port to listen on (overrides config)")
		dbType     = flag.String("db", "", "Database type: memory, bolt, badger (overrides config)")
		dbPath     = flag.String("path", "", "Database path (overrides config)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags win over file and environment
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbType != "" {
		cfg.Persistence.Type = persistence.Type(*dbType)
	}
	if *dbPath != "" {
		cfg.Persistence.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("=== FuseVec Server ===")
	fmt.Printf("Version: 1.0.0\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Host: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Database: %s\n", cfg.Persistence.Type)
	fmt.Printf("  Path: %s\n", cfg.Persistence.Path)
	fmt.Println()

	// Create persistence layer
	factory := persistence.NewDefaultFactory()
	persist, err := factory.CreatePersistence(cfg.Persistence)
	if err != nil {
		log.Fatalf("Failed to create persistence: %v", err)
	}

	// Create engine, rebuilding indexes from persisted records
	engine, err := core.NewEngine(persist, index.NewDefaultFactory())
	if err != nil {
		persist.Close()
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	// Create API server
	serverConfig := api.ServerConfig{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		DefaultBatchSize: cfg.Engine.DefaultBatchSize,
	}

	server := api.NewServer(engine, serverConfig)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down server...")

	// The server bounds the wait with its configured shutdown timeout
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	fmt.Println("Server stopped gracefully")
}
