package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-prison-stats/internal/config"
	"go-prison-stats/internal/model"
	"go-prison-stats/internal/pipeline"

	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "report config file (yaml or json)")
	dataPath := flag.String("data", "", "dataset to load, overrides the config source")
	display := flag.String("display", "", "display mode: browser, file or none")
	outDir := flag.String("out", "", "base directory for charts")
	flag.Parse()

	spec := model.DefaultReportSpec()
	if *configPath != "" {
		var err error
		if spec, err = config.Load(*configPath); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	if *dataPath != "" {
		spec.Source = model.Source{URL: *dataPath}
	}
	if *display != "" {
		spec.Display.Mode = *display
	}
	if *outDir != "" {
		spec.Display.OutputDir = *outDir
	}

	// Ctrl+C stops the chart viewer
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := pipeline.Run(ctx, uuid.New().String(), spec, pipeline.RunOptions{
		Out:       os.Stdout,
		OutputDir: spec.Display.OutputDir,
		Display:   true,
	})
	if err != nil {
		stop()
		log.Fatalf("❌ Report failed: %v", err)
	}
}
