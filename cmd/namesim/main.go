// Package main is the namesim CLI entry point.
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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/cli"
	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/embedding"
	"github.com/hyperjump/namesim/internal/fileid"
	"github.com/hyperjump/namesim/internal/indexer"
	"github.com/hyperjump/namesim/internal/keyword"
	"github.com/hyperjump/namesim/internal/metrics"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/search"
	"github.com/hyperjump/namesim/internal/server"
	"github.com/hyperjump/namesim/internal/storage"
	"github.com/hyperjump/namesim/internal/vector"
	"github.com/hyperjump/namesim/internal/watcher"
	"github.com/hyperjump/namesim/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/namesim/config.yaml"

// loadConfig loads config from path. When path is the default and config.yaml
// exists in the current directory, that file is used instead.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
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
	// A missing .env is fine; tokens may come from the real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve", "server":
		runServe()
	case "setup":
		runSetup()
	case "seed":
		runSeed()
	case "vectorize":
		runVectorize()
	case "search":
		runSearch()
	case "lookup":
		runLookup()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("namesim version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// commonFlags registers the flags every local command shares.
type commonFlags struct {
	configPath *string
	catalog    *string
	schema     *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		catalog:    fs.String("catalog", "", "catalog (default from config)"),
		schema:     fs.String("schema", "", "schema (default from config)"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// namespace returns the namespace selected by flags, falling back to cfg.
func (c *commonFlags) namespace(cfg *config.Config) models.Namespace {
	ns := cfg.Namespace
	if *c.catalog != "" {
		ns.Catalog = *c.catalog
	}
	if *c.schema != "" {
		ns.Schema = *c.schema
	}
	return ns
}

// open loads config and builds components for a one-shot CLI command.
// CLI commands log warnings to stderr only, unless -debug is given.
func (c *commonFlags) open() (*config.Config, *Components) {
	cfg, _, err := loadConfig(*c.configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *c.debug
	logger, err := utils.NewCLILogger(debugMode)
	if err != nil {
		fail("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(context.Background(), cfg, logger, nil)
	if err != nil {
		fail("Failed to initialize: %v", err)
	}
	return cfg, components
}

func parseOutput(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fail("%v", err)
	}
	return format
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file changes, vectorize batches, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fail("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx := context.Background()
	m := metrics.New()
	components, err := initializeComponents(ctx, cfg, logger, m)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ns := cfg.Namespace
	if err := components.Storage.EnsureNamespace(ctx, ns); err != nil {
		logger.Fatal("Failed to ensure namespace", zap.Error(err))
	}
	if err := components.Storage.CreateNameTable(ctx, ns, false); err != nil {
		logger.Fatal("Failed to create name table", zap.Error(err))
	}
	n, err := components.Engine.WarmStart(ctx, ns, cfg.Storage.SnapshotPath)
	if err != nil {
		logger.Warn("warm start failed; index loads on first search", zap.Error(err))
	} else {
		logger.Info("vector index ready", zap.String("namespace", ns.String()), zap.Int("candidates", n))
	}

	idx := components.Indexer
	reseed := func(path string) {
		if _, err := idx.SeedFile(ctx, ns, path); err != nil {
			logger.Warn("watch seed failed", zap.String("path", path), zap.Error(err))
			return
		}
		if _, err := idx.Vectorize(ctx, ns); err != nil {
			logger.Warn("watch vectorize failed", zap.String("path", path), zap.Error(err))
		}
	}
	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	if cfg.Watch.DebounceMillis > 0 {
		watchOpts = append(watchOpts, watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Files,
		reseed,
		func(path string) {
			source, err := fileid.SourceID(path)
			if err != nil {
				logger.Warn("watch source id failed", zap.String("path", path), zap.Error(err))
				return
			}
			if _, err := idx.RemoveSource(ctx, ns, source); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	for _, path := range watchSvc.Files() {
		reseed(path)
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
		server.WithMetrics(m),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	if cfg.Storage.SnapshotPath != "" {
		if err := components.Engine.SaveSnapshot(ns, cfg.Storage.SnapshotPath); err != nil {
			logger.Warn("vector snapshot save failed", zap.String("path", cfg.Storage.SnapshotPath), zap.Error(err))
		}
	}
}

func runSetup() {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	common := addCommonFlags(fs)
	replace := fs.Bool("replace", false, "drop and recreate the name table")
	_ = fs.Parse(os.Args[2:])

	cfg, components := common.open()
	defer components.Close()
	ns := common.namespace(cfg)
	ctx := context.Background()
	if err := components.Storage.EnsureNamespace(ctx, ns); err != nil {
		fail("Setup failed: %v", err)
	}
	if err := components.Storage.CreateNameTable(ctx, ns, *replace); err != nil {
		fail("Setup failed: %v", err)
	}
	if *replace && cfg.Storage.SnapshotPath != "" {
		// A snapshot of the dropped table must not be warm-loaded later.
		_ = os.Remove(cfg.Storage.SnapshotPath)
	}
	fmt.Printf("Name table ready: %s (replaced: %t)\n", ns, *replace)
}

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	common := addCommonFlags(fs)
	file := fs.String("file", "", "read names from a .txt, .csv, .xlsx or .ods file")
	vectorize := fs.Bool("vectorize", false, "embed the new names right away")
	_ = fs.Parse(os.Args[2:])

	if *file == "" && fs.NArg() == 0 {
		fmt.Println("Usage: namesim seed [flags] <name>... | -file <path>")
		os.Exit(1)
	}
	cfg, components := common.open()
	defer components.Close()
	ns := common.namespace(cfg)
	ctx := context.Background()

	var (
		recs []*models.NameRecord
		err  error
	)
	if *file != "" {
		recs, err = components.Indexer.SeedFile(ctx, ns, *file)
	} else {
		recs, err = components.Indexer.Seed(ctx, ns, fs.Args(), "")
	}
	if err != nil {
		fail("Seed failed: %v", err)
	}
	fmt.Printf("Seeded %d name(s) into %s\n", len(recs), ns)
	if *vectorize {
		report, err := components.Indexer.Vectorize(ctx, ns)
		if report != nil {
			_ = cli.WriteVectorizeReport(os.Stdout, report, cli.OutputText)
		}
		if err != nil {
			fail("Vectorize failed: %v", err)
		}
	}
}

func runVectorize() {
	fs := flag.NewFlagSet("vectorize", flag.ExitOnError)
	common := addCommonFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseOutput(*outputFormat)

	cfg, components := common.open()
	defer components.Close()
	report, err := components.Indexer.Vectorize(context.Background(), common.namespace(cfg))
	if report != nil {
		if werr := cli.WriteVectorizeReport(os.Stdout, report, format); werr != nil {
			fail("Output failed: %v", werr)
		}
	}
	if err != nil {
		fail("Vectorize failed: %v", err)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: namesim search [flags] <name>\n       namesim search [flags] -vector 0.1,0.2,...\n\n")
	fmt.Fprintf(fs.Output(), "The name is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Only names scoring strictly above -threshold are returned, best first.
  • -scoring dot is only a cosine similarity when embeddings are unit length.
  • -pushdown runs the scan inside the database instead of the memory index.
  • -lexical adds fuzzy name matches from the keyword index.

Examples:
  namesim search Acme Stores
  namesim search -threshold 0.9 -limit 5 "Dollar Tree"
  namesim search -vector 1,0,0,0 -scoring dot
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word names
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves flags that appear after the name to the front so
// that flag.Parse sees them; the flag package stops at the first positional.
func searchArgsReorder(args []string) []string {
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

// parseVector parses a comma-separated list of floats.
func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		out = append(out, float32(f))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("vector is empty")
	}
	return out, nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	common := addCommonFlags(fs)
	serverURL := fs.String("server", "", "server URL (empty = open the store directly)")
	vectorFlag := fs.String("vector", "", "search by a raw comma-separated vector instead of a name")
	threshold := fs.Float64("threshold", -1, "minimum score, exclusive (default from config)")
	limit := fs.Int("limit", 0, "number of results (default from config)")
	scoring := fs.String("scoring", "", "cosine or dot (default from config)")
	pushdown := fs.Bool("pushdown", false, "run the scan in the database")
	lexical := fs.Bool("lexical", false, "add fuzzy name matches")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))
	format := parseOutput(*outputFormat)

	query := &models.SearchQuery{
		Text:     buildSearchQuery(fs.Args()),
		Limit:    *limit,
		Scoring:  *scoring,
		Pushdown: *pushdown,
		Lexical:  *lexical,
	}
	if *vectorFlag != "" {
		vec, err := parseVector(*vectorFlag)
		if err != nil {
			fail("%v", err)
		}
		query.Vector = vec
	}
	if query.Text == "" && len(query.Vector) == 0 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			query.Threshold = threshold
		}
	})

	var (
		response *models.SearchResponse
		err      error
	)
	if *serverURL != "" {
		if *common.catalog != "" || *common.schema != "" {
			query.Namespace = models.Namespace{Catalog: *common.catalog, Schema: *common.schema}
		}
		response, err = searchViaHTTP(*serverURL, query)
	} else {
		cfg, components := common.open()
		defer components.Close()
		query.Namespace = common.namespace(cfg)
		response, err = components.Engine.Search(context.Background(), query)
	}
	if err != nil {
		fail("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runLookup() {
	args := searchArgsReorder(os.Args[2:])
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 10, "number of matches")
	fuzzy := fs.Bool("fuzzy", true, "tolerate typos")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)
	format := parseOutput(*outputFormat)

	text := buildSearchQuery(fs.Args())
	if text == "" {
		fmt.Println("Usage: namesim lookup [flags] <name>")
		os.Exit(1)
	}
	cfg, components := common.open()
	defer components.Close()
	ns := common.namespace(cfg)
	if cfg.Storage.BleveIndexPath == "" {
		// The in-memory name index starts empty.
		if _, err := components.Engine.Reload(context.Background(), ns); err != nil {
			fail("Lookup failed: %v", err)
		}
	}
	res, err := components.Engine.Lookup(context.Background(), ns, text, *limit, *fuzzy)
	if err != nil {
		fail("Lookup failed: %v", err)
	}
	if err := cli.WriteLookup(os.Stdout, res, format); err != nil {
		fail("Output failed: %v", err)
	}
}

// statusResponse is what status prints.
type statusResponse struct {
	Namespace  models.Namespace   `json:"namespace"`
	Names      int64              `json:"names"`
	Embedded   int64              `json:"embedded"`
	Pending    int64              `json:"pending"`
	DiskUsage  *storage.DiskUsage `json:"disk_usage,omitempty"`
	Driver     string             `json:"storage_driver"`
	Provider   string             `json:"embedding_provider"`
	Model      string             `json:"embedding_model"`
	Dimensions int                `json:"embedding_dimensions"`
	Scoring    string             `json:"scoring"`
	Threshold  float64            `json:"default_threshold"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	common := addCommonFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseOutput(*outputFormat)

	cfg, components := common.open()
	defer components.Close()
	ns := common.namespace(cfg)
	ctx := context.Background()
	names, err := components.Storage.CountNames(ctx, ns)
	if err != nil {
		fail("Count names failed: %v", err)
	}
	embedded, err := components.Storage.CountEmbedded(ctx, ns)
	if err != nil {
		fail("Count embedded failed: %v", err)
	}
	status := statusResponse{
		Namespace:  ns,
		Names:      names,
		Embedded:   embedded,
		Pending:    names - embedded,
		Driver:     cfg.Storage.Driver,
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Scoring:    cfg.Search.Scoring,
		Threshold:  cfg.Search.Threshold(),
	}
	if cfg.Storage.Driver == "sqlite" {
		if usage, err := storage.MeasureDiskUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.SnapshotPath); err == nil {
			status.DiskUsage = &usage
		}
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	fmt.Printf("namespace:          %s\n", status.Namespace)
	fmt.Printf("names:              %d\n", status.Names)
	fmt.Printf("embedded:           %d\n", status.Embedded)
	fmt.Printf("pending:            %d   # run namesim vectorize\n", status.Pending)
	if u := status.DiskUsage; u != nil {
		fmt.Printf("disk_usage:         %d bytes\n", u.Total)
		fmt.Printf("  database:         %d\n", u.Database)
		fmt.Printf("  name_index:       %d\n", u.NameIndex)
		fmt.Printf("  snapshot:         %d\n", u.Snapshot)
	}
	fmt.Println()
	fmt.Println("# configuration")
	fmt.Printf("storage_driver:     %s\n", status.Driver)
	fmt.Printf("embedding:          %s %s (%d dims)\n", status.Provider, status.Model, status.Dimensions)
	fmt.Printf("scoring:            %s\n", status.Scoring)
	fmt.Printf("default_threshold:  %.4f\n", status.Threshold)
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Store
	Embedder  embedding.Embedder
	NameIndex keyword.NameIndex
	Engine    *search.Engine
	Indexer   *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.NameIndex != nil {
		_ = c.NameIndex.Close()
	}
}

// initializeComponents wires storage, embedder, indices, engine and indexer.
// m may be nil; only the server exports metrics.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Components, error) {
	store, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.ResolveDSN(), storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	embedder, err := embedding.NewEmbedder(&cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if m != nil {
		embedder = embedding.NewInstrumentedEmbedder(embedder, m)
	}
	c.Embedder = embedder

	// Without a configured path the name index lives in memory and is rebuilt
	// from the store when a namespace is loaded.
	var names *keyword.BleveIndex
	if cfg.Storage.BleveIndexPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.BleveIndexPath), 0755); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create keyword index directory: %w", err)
		}
		names, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	} else {
		names, err = keyword.NewMemBleveIndex()
	}
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.NameIndex = names

	vectors := vector.NewIndexSet(cfg.Search.Workers)
	c.Engine = search.NewEngine(store, embedder, vectors, names, &cfg.Search, cfg.Namespace,
		search.WithLogger(logger), search.WithMetrics(m))
	c.Indexer = indexer.NewIndexer(store, embedder, vectors, names, &cfg.Vectorize,
		indexer.WithLogger(logger), indexer.WithMetrics(m), indexer.WithBatchSize(cfg.Embedding.BatchSize))

	if logger != nil {
		logger.Debug("components initialized",
			zap.String("storage", cfg.Storage.Driver),
			zap.String("embedder", embedder.Model()),
			zap.Int("dimensions", embedder.Dimensions()),
			zap.Bool("persistent_keyword_index", cfg.Storage.BleveIndexPath != ""))
	}
	return c, nil
}

func printUsage() {
	fmt.Println(`namesim - name similarity lookup over embedded names

Usage:
  namesim setup [flags]              Create the namespace and name table
  namesim seed [flags] <name>...     Add names (or -file <path>)
  namesim vectorize [flags]          Embed every name that has no embedding yet
  namesim search [flags] <name>      Find names scoring above a threshold
  namesim lookup [flags] <name>      Typo-tolerant lexical name lookup
  namesim serve [flags]              Start the HTTP server and seed-file watcher
  namesim status [flags]             Show row counts and configuration
  namesim version                    Show version
  namesim help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/namesim/config.yaml, or ./config.yaml)
  --catalog string   Catalog (default from config)
  --schema string    Schema (default from config)
  --debug            Enable debug logging

Setup Flags:
  --replace          Drop and recreate the name table

Seed Flags:
  --file string      Read names from .txt, .csv, .xlsx or .ods
  --vectorize        Embed the new names right away

Search Flags:
  --vector string    Comma-separated query vector instead of a name
  --threshold float  Minimum score, exclusive (default from config, 0.95)
  --limit int        Number of results (default from config, max 100)
  --scoring string   cosine or dot
  --pushdown         Run the scan inside the database
  --lexical          Add fuzzy name matches
  --server string    Query a running server instead of opening the store
  --output string    text or json

Examples:
  namesim setup
  namesim seed "Acme Stores" "Dollar Tree"
  namesim seed -file retailers.csv -vectorize
  namesim vectorize
  namesim search Acme Store
  namesim search -threshold 0.9 -output json "Dolar Tree"
  namesim lookup dolar tre
  namesim serve`)
}
