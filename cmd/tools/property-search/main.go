// cmd/tools/property-search/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rental-aggregator/internal/app"
	"rental-aggregator/internal/common/config"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

func main() {
	tools := flag.String("tool", "jupri_zillow_scraper", "Tool id, or a comma separated list to search several sources at once")
	input := flag.String("input", "{}", "Tool arguments as a JSON object")
	configPath := flag.String("config", "", "Config file (defaults to configs/config.yaml discovery)")
	verbose := flag.Bool("v", false, "Log pipeline stages to stderr")
	flag.Parse()

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*input), &args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -input must be a JSON object: %v\n", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, "console", "stderr")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building pipeline: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	names := splitTools(*tools)
	var out interface{}
	switch len(names) {
	case 0:
		fmt.Fprintln(os.Stderr, "Error: -tool is required")
		os.Exit(2)
	case 1:
		props, err := application.Orchestrator.Search(ctx, names[0], args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		out = props
	default:
		requests := make([]models.SearchRequest, 0, len(names))
		for _, name := range names {
			requests = append(requests, models.SearchRequest{ToolName: name, ToolInput: args})
		}
		props, sources, err := application.Orchestrator.SearchAll(ctx, requests)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		out = map[string]interface{}{"properties": props, "sources": sources}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func splitTools(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
