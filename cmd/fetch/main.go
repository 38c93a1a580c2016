// Command fetch resolves a few quotes through the provider cascade and prints
// them as JSON. Useful for checking tokens and rate limits from a shell.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"marketdata/internal/app"
	"marketdata/internal/config"
	"marketdata/internal/logger"
	"marketdata/internal/provider"
)

func main() {
	var symbolsCSV string
	var configPath string
	var timeout time.Duration
	var verbose bool

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL,MSFT"), "comma-separated ticker symbols")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	flag.BoolVar(&verbose, "v", false, "log cascade attempts to stderr")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if cfg.NeedsSSM() {
		client, err := config.NewSSMClient(ctx)
		if err != nil {
			log.Fatalf("ssm: %v", err)
		}
		if err := cfg.ResolveSecrets(ctx, client); err != nil {
			log.Fatalf("secrets: %v", err)
		}
	}

	lg := zap.NewNop()
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.OutputFile = ""
		if lg, err = logger.New(cfg.Log); err != nil {
			log.Fatalf("logger: %v", err)
		}
	}

	a, err := app.Build(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	defer func() { _ = a.Close() }()

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		log.Fatal("no symbols provided")
	}

	res, err := a.Aggregator.GetBatch(ctx, symbols)
	if err != nil && len(res) == 0 {
		log.Fatalf("fetch: %v", err)
	}

	quotes := make(map[string]provider.Quote, len(res))
	for sym, r := range res {
		if !r.OK() {
			log.Printf("%s error: %v", sym, r.Err)
			continue
		}
		quotes[sym] = r.Quote
	}
	if len(quotes) == 0 {
		log.Fatal("no quotes received")
	}

	out := struct {
		Quotes map[string]provider.Quote `json:"quotes"`
	}{Quotes: quotes}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
