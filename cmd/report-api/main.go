package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-prison-stats/internal/api"
	"go-prison-stats/internal/api/handler"
	"go-prison-stats/internal/store"
	"go-prison-stats/pkg/router"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "reports.db", "sqlite database")
	outDir := flag.String("out", "output", "base directory for charts")
	flag.Parse()

	// Init DB
	if err := store.InitDB(*dbPath); err != nil {
		log.Fatalf("❌ Failed to open %s: %v", *dbPath, err)
	}
	defer store.Close()
	handler.OutputDir = *outDir

	// Create router and register API routes
	r := router.New()
	api.RegisterRoutes(r)

	ln, err := router.Listen(*addr)
	if err != nil {
		log.Fatalf("❌ Failed to listen on %s: %v", *addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := r.Serve(ctx, ln); err != nil {
		log.Printf("❌ Server error: %v", err)
	}
}
