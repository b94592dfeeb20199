// Package main is the Annai CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/hyperjump/annai/internal/cli"
	"github.com/hyperjump/annai/internal/config"
	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/generation"
	"github.com/hyperjump/annai/internal/importer"
	"github.com/hyperjump/annai/internal/indexer"
	"github.com/hyperjump/annai/internal/keyword"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/rag"
	"github.com/hyperjump/annai/internal/retrieval"
	"github.com/hyperjump/annai/internal/server"
	"github.com/hyperjump/annai/internal/storage"
	"github.com/hyperjump/annai/internal/vector"
	"github.com/hyperjump/annai/internal/watcher"
	"github.com/hyperjump/annai/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/annai/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "annai server" from the project dir uses the project's config (including debug).
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
	case "ask":
		runAsk()
	case "search":
		runSearch()
	case "reindex":
		runReindex()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("annai version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (record ingestion, indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchSvc *watcher.Watcher
	if cfg.Ingest.DropDirectory != "" {
		ingestor := watcher.NewIngestor(components.Storage, components.Indexer, components.Importer, logger)
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(
			cfg.Ingest.DropDirectory,
			func(path string) {
				if err := ingestor.HandleFile(context.Background(), path); err != nil {
					logger.Warn("ingest file failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		components.Orchestrator,
		components.Retriever,
		components.Indexer,
		components.Storage,
		components.Store,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := components.Store.Save(saveCtx); err != nil {
		logger.Warn("vector store save failed", zap.Error(err))
	}
	saveCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting (e.g. "wool coat" vs wool coat).
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "annai search \"query\" -limit 5"
// would otherwise leave -limit unparsed.
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

func runSearch() {
	searchArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	exact := fs.Bool("exact", false, "exact-term lookup for identifiers (order numbers, emails) instead of semantic search")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		results, err := searchViaHTTP(*serverURL, queryStr, *limit, *exact)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRetrievalResults(os.Stdout, results, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running).
	components, cfg, logger := mustInitialize(*configPathFlag)
	defer logger.Sync()
	defer components.Close()

	k := *limit
	if k <= 0 {
		k = cfg.Retrieval.TopK
	}
	ctx := context.Background()
	var results []models.RetrievalResult
	if *exact {
		results, err = components.Retriever.Lookup(ctx, queryStr, k)
	} else {
		results, err = components.Retriever.Retrieve(ctx, queryStr, k)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRetrievalResults(os.Stdout, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: annai search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  annai search wool winter coat
  annai search "wool winter coat"            # same as above
  annai search --exact ORD-1001              # exact order number lookup
  annai search --exact mika@example.com      # exact email lookup
  annai search --limit 10 --output json coat
`)
}

func searchViaHTTP(serverURL, query string, limit int, exact bool) ([]models.RetrievalResult, error) {
	body, err := json.Marshal(map[string]any{
		"query": query,
		"top_k": limit,
		"exact": exact,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response struct {
		Results []models.RetrievalResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response.Results, nil
}

func runAsk() {
	askArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	userID := fs.String("user", "cli", "user id owning the conversation")
	sessionID := fs.String("session", "", "session id to continue a conversation (empty = new session)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		answer, err := askViaHTTP(*serverURL, queryStr, *userID, *sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components, _, logger := mustInitialize(*configPathFlag)
	defer logger.Sync()
	defer components.Close()

	answer, err := components.Orchestrator.Answer(context.Background(), queryStr, *userID, *sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: annai ask [flags] <question>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  annai ask what wool coats do you have
  annai ask --session session_cli_123 "and in size M?"
  annai ask --output json "gift ideas under 100"
`)
}

func askViaHTTP(serverURL, query, userID, sessionID string) (*models.AnswerResponse, error) {
	body, err := json.Marshal(map[string]any{
		"query":      query,
		"user_id":    userID,
		"session_id": sessionID,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var answer models.AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &answer, nil
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	var report *models.ReindexReport
	if *serverURL != "" {
		res, err := reindexViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
			os.Exit(1)
		}
		report = res
	} else {
		components, _, logger := mustInitialize(*configPath)
		defer logger.Sync()
		defer components.Close()
		res, err := components.Indexer.FullReindex(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
			os.Exit(1)
		}
		report = res
	}

	fmt.Printf("status: %s   total indexed: %d\n", report.Status, report.TotalIndexed)
	for _, collection := range models.AllSourceTypes {
		result, ok := report.Results[collection]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-10s %-8s indexed=%d", collection, result.Status, result.IndexedCount)
		if result.Skipped > 0 {
			line += fmt.Sprintf(" skipped=%d", result.Skipped)
		}
		if result.Error != "" {
			line += " error=" + result.Error
		}
		fmt.Println(line)
	}
	if report.Status != "success" {
		os.Exit(1)
	}
}

func reindexViaHTTP(serverURL string) (*models.ReindexReport, error) {
	resp, err := http.Post(serverURL+"/api/v1/index/full", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var report models.ReindexReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &report, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	noIndex := fs.Bool("no-index", false, "import records without indexing them")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: annai import [flags] <products.xlsx>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	components, _, logger := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	report, err := components.Importer.ImportProducts(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d product(s), skipped %d row(s) from %s\n", report.Imported, report.Skipped, path)

	if *noIndex {
		return
	}
	// A rebuild, not an additive pass: re-importing a catalog must replace
	// its index entries, and the vector store is append-only.
	result, err := components.Indexer.FullReindex(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	if result.Status != "success" {
		fmt.Fprintf(os.Stderr, "Indexing incomplete: %s\n", result.Status)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d record(s) (%d products)\n",
		result.TotalIndexed, result.Results[models.SourceProducts].IndexedCount)
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	DatabasePath        string `json:"database_path,omitempty"`
	KeywordIndexPath    string `json:"keyword_index_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Records        map[string]int64      `json:"records"`
	Index          models.IndexStats     `json:"index"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		counts := make(map[string]int64, len(models.AllSourceTypes))
		for _, collection := range models.AllSourceTypes {
			n, err := components.Storage.CountRecords(ctx, collection)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Count records failed: %v\n", err)
				os.Exit(1)
			}
			counts[string(collection)] = n
		}
		status = statusResponse{
			Records: counts,
			Index:   components.Store.Stats(),
			Config: &statusConfigResponse{
				EmbeddingDimensions: cfg.Embedding.Dimensions,
				DatabasePath:        cfg.Storage.DatabasePath,
				KeywordIndexPath:    cfg.Storage.KeywordIndexPath,
			},
		}
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.KeywordIndexPath)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		for _, collection := range models.AllSourceTypes {
			fmt.Printf("%-10s %d\n", collection+":", status.Records[string(collection)])
		}
		fmt.Println()
		fmt.Printf("vectors:    %d   # entries in the semantic index\n", status.Index.TotalVectors)
		fmt.Printf("dimension:  %d\n", status.Index.Dimension)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes: %d   # database + keyword index on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			if status.Config.EmbeddingDimensions > 0 {
				fmt.Printf("embedding_dims:     %d\n", status.Config.EmbeddingDimensions)
			}
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.KeywordIndexPath != "" {
				fmt.Printf("keyword_index_path: %s\n", status.Config.KeywordIndexPath)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// mustInitialize loads config, builds a logger and the full component set,
// exiting on any failure. Shared by the direct-storage command paths.
func mustInitialize(configPath string) (*Components, *config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return components, cfg, logger
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	Store        *vector.Store
	KeywordIndex keyword.Index
	Generator    generation.Generator
	Importer     *importer.Importer
	Indexer      *indexer.Indexer
	Retriever    *retrieval.Service
	Orchestrator *rag.Orchestrator
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		if logger != nil {
			logger.Warn("ONNX embedder unavailable, using mock embedder",
				zap.String("model_path", cfg.Embedding.ModelPath),
				zap.Error(err))
		}
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	storeOpts := []vector.StoreOption{}
	if debug && logger != nil {
		storeOpts = append(storeOpts, vector.WithLogger(logger))
	}
	vectorStore, err := vector.NewStore(cfg.Embedding.Dimensions, store, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	if err := vectorStore.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	var generator generation.Generator
	if cfg.Generation.Endpoint == "" {
		generator = generation.NewMockGenerator()
	} else {
		genOpts := []generation.OllamaOption{}
		if logger != nil {
			genOpts = append(genOpts, generation.WithLogger(logger))
		}
		generator = generation.NewOllamaGenerator(
			cfg.Generation.Endpoint,
			cfg.Generation.Model,
			time.Duration(cfg.Generation.TimeoutSeconds)*time.Second,
			genOpts...,
		)
	}
	if logger != nil {
		logger.Info("components initialized",
			zap.Int("dimensions", cfg.Embedding.Dimensions),
			zap.Int("vectors", vectorStore.Size()),
			zap.Bool("mock_generator", cfg.Generation.Endpoint == ""))
	}

	idxOpts := []indexer.IndexerOption{}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx := indexer.NewIndexer(store, embedder, vectorStore, keywordIndex, idxOpts...)

	retriever := retrieval.NewService(embedder, vectorStore, keywordIndex, store,
		retrieval.WithLogger(logger))

	orchestrator := rag.NewOrchestrator(retriever, generator, store, rag.Config{
		TopK:              cfg.Retrieval.TopK,
		HistoryTurns:      cfg.Retrieval.HistoryTurns,
		GenerationTimeout: time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	}, rag.WithLogger(logger))

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		Store:        vectorStore,
		KeywordIndex: keywordIndex,
		Generator:    generator,
		Importer:     importer.NewImporter(store, importer.WithLogger(logger)),
		Indexer:      idx,
		Retriever:    retriever,
		Orchestrator: orchestrator,
	}, nil
}

func printUsage() {
	fmt.Println(`annai - Catalog retrieval and shopping assistant engine

Usage:
  annai server [flags]            Start the HTTP server
  annai ask [flags] <question>    Ask the assistant a question
  annai search [flags] <query>    Search the catalog
  annai reindex [flags]           Rebuild the vector and keyword indices
  annai import [flags] <xlsx>     Import products from a spreadsheet
  annai status [flags]            Show record/index/storage status
  annai version                   Show version
  annai help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/annai/config.yaml)
  --debug            Enable debug logging (record ingestion, indexing, etc.)

Ask Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --user string      User id owning the conversation (default: cli)
  --session string   Session id to continue a conversation
  --output string    Output format: text or json (default: text)

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --limit int        Number of results (default from config)
  --exact            Exact-term lookup for identifiers (order numbers, emails)
  --output string    Output format: text or json (default: text)

Reindex Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Import Flags:
  --config string    Config file path
  --no-index         Import records without indexing them

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  annai server
  annai ask "what wool coats do you have"
  annai search wool winter coat
  annai search --exact ORD-1001
  annai reindex
  annai import products.xlsx
  annai status --output json`)
}
