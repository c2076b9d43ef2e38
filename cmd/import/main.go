// Command import replays previously captured payload files against a running
// server. Each *.json file in the directory is posted as one bulk request.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Dalvae/upworkinsights/internal/ingestclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dir     string
		baseURL string
		apiKey  string
	)

	flag.StringVar(&dir, "dir", ".", "Directory containing captured *.json payload files")
	flag.StringVar(&baseURL, "url", envOrDefault("INGEST_URL", "http://localhost:8080"), "Base URL of the insights server")
	flag.StringVar(&apiKey, "key", envOrDefault("INGEST_API_KEY", ""), "API key for the ingest endpoints")
	flag.Parse()

	if apiKey == "" {
		return fmt.Errorf("--key is required (or set INGEST_API_KEY)")
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("list payload files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no *.json files found in %s", dir)
	}
	sort.Strings(files)

	ctx := context.Background()
	client := ingestclient.NewClient(baseURL, apiKey)

	var total, inserted, errors, skipped int
	for _, file := range files {
		payload, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		result, err := client.ImportPayload(ctx, payload)
		if err != nil {
			return fmt.Errorf("import %s: %w", file, err)
		}

		fmt.Printf("%s: %d jobs, %d inserted, %d errors, %d skipped\n",
			filepath.Base(file), result.Total, result.Inserted, result.Errors, result.Skipped)
		total += result.Total
		inserted += result.Inserted
		errors += result.Errors
		skipped += result.Skipped
	}

	fmt.Printf("done: %d files, %d jobs, %d inserted, %d errors, %d skipped\n",
		len(files), total, inserted, errors, skipped)

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
