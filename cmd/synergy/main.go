// Package main is the synergy CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/builder"
	"github.com/hyperjump/synergy/internal/cli"
	"github.com/hyperjump/synergy/internal/config"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/recommend"
	"github.com/hyperjump/synergy/internal/server"
	"github.com/hyperjump/synergy/internal/storage"
	"github.com/hyperjump/synergy/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/synergy/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "related":
		runRelated()
	case "items":
		runItems()
	case "build":
		runBuild()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("synergy version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// mustSetup loads the config and creates the logger, exiting on failure.
func mustSetup(configPath string, debug bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func mustFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Service, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves any flags (and their values) that appear after the names to the front
// of the slice so that flag.Parse() sees them. Go's flag package stops at the first
// non-flag argument, so "synergy related Teemo -output json" would otherwise leave -output
// unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseNames joins all positional args with spaces and splits on commas, so
// `synergy related Teemo, Jarvan IV` and `synergy related "Teemo,Jarvan IV"` agree.
func parseNames(args []string) []string {
	return models.SplitNames(strings.Join(args, " "))
}

type queryFlags struct {
	configPath *string
	serverURL  *string
	output     *string
}

func addQueryFlags(fs *flag.FlagSet) queryFlags {
	return queryFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path (used when -server is empty)"),
		serverURL:  fs.String("server", "", "server URL, e.g. http://localhost:8080 (empty = load snapshots directly)"),
		output:     fs.String("output", "text", "output format: text, compact, or json"),
	}
}

// localService loads the snapshots named by the config for a one-shot query.
func localService(configPath string) (*Components, *zap.Logger) {
	cfg, _, logger := mustSetup(configPath, false)
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

func runRelated() {
	fs := flag.NewFlagSet("related", flag.ExitOnError)
	qf := addQueryFlags(fs)
	category := fs.String("category", string(models.CategoryChampions), "category of the query names")
	kPrimary := fs.Int("k-primary", 0, "size of the cost-ordered list (0 = config default)")
	kSecondary := fs.Int("k-secondary", 0, "size of the similarity-ordered list (0 = config default)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: synergy related [flags] <name>[, <name>...]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := mustFormat(*qf.output)
	cat, err := models.ParseCategory(*category)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req := models.RelatedRequest{Category: cat, IDs: parseNames(fs.Args()), KPrimary: *kPrimary, KSecondary: *kSecondary}
	if len(req.IDs) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	var resp *models.RelatedResponse
	if *qf.serverURL != "" {
		resp = &models.RelatedResponse{}
		err = postJSON(*qf.serverURL+"/api/v1/recommend/related", req, resp)
	} else {
		components, logger := localService(*qf.configPath)
		defer logger.Sync()
		defer components.Close()
		resp, err = components.Service.Related(context.Background(), req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRelated(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runItems() {
	fs := flag.NewFlagSet("items", flag.ExitOnError)
	qf := addQueryFlags(fs)
	k := fs.Int("k", 0, "number of items (0 = config default)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: synergy items [flags] <champion>[, <champion>...]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := mustFormat(*qf.output)
	req := models.ItemsRequest{IDs: parseNames(fs.Args()), K: *k}
	if len(req.IDs) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	var resp *models.ItemsResponse
	var err error
	if *qf.serverURL != "" {
		resp = &models.ItemsResponse{}
		err = postJSON(*qf.serverURL+"/api/v1/recommend/items", req, resp)
	} else {
		components, logger := localService(*qf.configPath)
		defer logger.Sync()
		defer components.Close()
		resp, err = components.Service.ItemsFor(context.Background(), req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteItems(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	category := fs.String("category", "all", "category to build: champions, items, or all")
	mock := fs.Bool("mock", false, "use the deterministic offline embedder instead of the embedding API")
	output := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	format := mustFormat(*output)
	targets, err := buildCategories(*category)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	emb, model, err := newEmbedder(cfg, logger, *mock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create embedder: %v\n", err)
		os.Exit(1)
	}
	defer emb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := builder.New(emb,
		builder.WithLogger(logger),
		builder.WithBatchSize(cfg.Embedding.BatchSize),
		builder.WithProgress(builder.DefaultProgress()),
	)
	var reports []*builder.Report
	for _, cat := range targets {
		c := cfg.Category(cat)
		if len(c.Inputs) == 0 {
			fmt.Fprintf(os.Stderr, "No inputs configured for %s (categories.%s.inputs)\n", cat, cat)
			os.Exit(1)
		}
		metric, _ := models.ParseMetric(c.Metric)
		report, err := b.Build(ctx, builder.Target{
			Category:     cat,
			Inputs:       c.Inputs,
			SnapshotPath: c.SnapshotPath,
			IndexPath:    c.IndexPath,
			Metric:       metric,
			Model:        model,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Build %s failed: %v\n", cat, err)
			os.Exit(1)
		}
		reports = append(reports, report)
	}
	if err := cli.WriteBuildReports(os.Stdout, reports, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// buildCategories resolves the -category flag of the build command.
func buildCategories(s string) ([]models.Category, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return models.Categories, nil
	}
	cat, err := models.ParseCategory(s)
	if err != nil {
		return nil, err
	}
	return []models.Category{cat}, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when -server is empty)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load snapshots directly)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := mustFormat(*output)
	var report recommend.StatusReport
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &report); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, logger := mustSetup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(context.Background(), cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		report = components.Service.Report()
		var paths []string
		for _, cat := range models.Categories {
			c := cfg.Category(cat)
			paths = append(paths, c.SnapshotPath, c.IndexPath)
		}
		if n, err := storage.DiskUsageBytes(paths...); err == nil {
			report.DiskUsageBytes = n
		}
	}
	if err := cli.WriteStatus(os.Stdout, &report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// apiError is the error body returned by the server.
type apiError struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func postJSON(url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var e apiError
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`synergy - Champion and item recommendations from description embeddings

Usage:
  synergy server [flags]                  Start the HTTP server
  synergy related [flags] <names>         Champions related to a comma separated list
  synergy items [flags] <names>           Items for a comma separated list of champions
  synergy build [flags]                   Embed scraped data into snapshots and indexes
  synergy status [flags]                  Show per-category load status
  synergy version                         Show version
  synergy help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/synergy/config.yaml)
  --debug            Enable debug logging

Related / Items Flags:
  --config string    Config file path (when querying snapshots directly)
  --server string    Server URL; empty (default) loads the snapshots in-process
  --output string    Output format: text, compact, or json (default: text)
  --category string  Category of the query names (related only, default: champions)
  --k-primary int    Size of the cost-ordered list (related only)
  --k-secondary int  Size of the similarity-ordered list (related only)
  --k int            Number of items (items only)

Build Flags:
  --config string    Config file path
  --category string  champions, items, or all (default: all)
  --mock             Use the deterministic offline embedder
  --output string    Output format: text or json

Status Flags:
  --config string    Config file path (for direct snapshot mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to load snapshots directly.
  --output string    Output format: text or json (default: text)

Environment:
  OPENAI_API_KEY     Embedding API key (also read from .env)

Examples:
  synergy server
  synergy related Teemo, Jarvan IV
  synergy related --output json "Ahri,Lux"
  synergy items --k 5 Ahri
  synergy build --category champions
  synergy status --server ""`)
}
