package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/greyhaven-ai/datapack/internal/config"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/repositories"
	"github.com/greyhaven-ai/datapack/internal/extract"
	"github.com/greyhaven-ai/datapack/internal/handler"
	"github.com/greyhaven-ai/datapack/internal/identity"
	"github.com/greyhaven-ai/datapack/internal/metrics"
	"github.com/greyhaven-ai/datapack/internal/middleware"
	"github.com/greyhaven-ai/datapack/internal/repository/file"
	"github.com/greyhaven-ai/datapack/internal/repository/memory"
	"github.com/greyhaven-ai/datapack/internal/repository/postgres"
	"github.com/greyhaven-ai/datapack/internal/search"
	"github.com/greyhaven-ai/datapack/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logOut := io.Writer(os.Stdout)
	if cfg.LogDir != "" {
		logFile, err := cfg.OpenLogFile()
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"namespace", cfg.DefaultNamespace,
	)

	ctx := context.Background()

	// Select the document store: postgres when configured, in-memory
	// otherwise.
	var (
		docRepo   repositories.DocumentRepository
		collRepo  repositories.CollectionRepository
		txManager repositories.TransactionManager
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
		docRepo = postgres.NewDocumentRepository(repoConfig)
		collRepo = postgres.NewCollectionRepository(repoConfig)
		txManager = postgres.NewTransactionManager(pool)
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)
	} else {
		docRepo = memory.NewDocumentRepository()
		collRepo = memory.NewCollectionRepository()
		txManager = memory.NewTransactionManager()
		logger.Info("using in-memory store")
	}

	ids := identity.NewGenerator()
	locks := service.NewIDLocks()
	index := search.NewMemoryIndex()
	extractor := extract.NewHeuristic()

	// Load MDP files from configured directories before serving.
	if len(cfg.MDPDirs) > 0 {
		loader := file.NewLoader(file.LoaderConfig{
			Repo:      docRepo,
			IDs:       ids,
			Namespace: cfg.DefaultNamespace,
			Logger:    logger,
		})
		for _, dir := range cfg.MDPDirs {
			stats, err := loader.LoadDir(ctx, dir)
			if err != nil {
				log.Fatalf("Failed to load MDP directory %s: %v", dir, err)
			}
			logger.Info("MDP directory loaded", "dir", dir, "loaded", stats.Loaded, "skipped", stats.Skipped)
		}
	}

	// Index everything already in the store.
	docs, err := docRepo.List(ctx, models.ListFilter{})
	if err != nil {
		log.Fatalf("Failed to list documents for indexing: %v", err)
	}
	for _, doc := range docs {
		index.Index(doc)
	}

	resolver := service.NewResolver(docRepo, cfg.SearchPaths)
	graphService := service.NewGraph(docRepo, resolver, ids, locks, logger)
	collService := service.NewCollection(collRepo, docRepo, resolver, ids, locks, logger)
	docService := service.NewDocumentService(
		docRepo, txManager, resolver, graphService, collService,
		index, extractor, ids, locks, cfg.DefaultNamespace, logger,
	)

	logger.Info("services initialized", "indexed", len(docs))

	// Metrics registry
	registry := prometheus.NewRegistry()
	metrics.RegisterCollectors(registry)
	registry.MustRegister(collectors.NewGoCollector())

	// Handlers and routes (Go 1.22+ enhanced patterns)
	mux := handler.Routes(
		handler.NewDocumentHandler(docService, graphService, logger),
		handler.NewMDPHandler(docService, logger),
		handler.NewCollectionHandler(collService, logger),
		handler.NewContextHandler(docService, logger),
		registry,
	)

	// Build middleware chain (applied in reverse order, they wrap each other)
	var root http.Handler = mux
	root = middleware.Logging(logger, mux)(root)
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
