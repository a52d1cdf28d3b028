package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"firmdesk/internal/auth"
	"firmdesk/internal/config"
	"firmdesk/internal/handler"
	"firmdesk/internal/middleware"
	"firmdesk/internal/repository/postgres"
	"firmdesk/internal/service/docs"
	"firmdesk/internal/service/generation"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for the firm identity service
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Setup generation providers
	specs, err := generation.LoadCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to load provider catalog: %v", err)
	}
	providerRegistry := generation.NewRegistry(specs, logger)

	// Create document services
	versionStore := docs.NewVersionStore(docRepo, txManager, logger)
	reviewAggregator := docs.NewReviewAggregator(logger)
	lifecycle := docs.NewLifecycle(docRepo, versionStore, reviewAggregator, providerRegistry, logger)

	// Create handlers
	docHandler := handler.NewDocumentHandler(lifecycle, logger)
	versionHandler := handler.NewVersionHandler(lifecycle, logger)
	reviewHandler := handler.NewReviewHandler(lifecycle, logger)
	generateHandler := handler.NewGenerateHandler(lifecycle, logger)

	logger.Info("services initialized", "providers", len(specs))

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("POST /api/documents/{type}", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PUT /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Version routes
	mux.HandleFunc("GET /api/documents/{id}/versions", versionHandler.ListVersions)
	mux.HandleFunc("POST /api/documents/{id}/versions/{n}/restore", versionHandler.RestoreVersion)

	// Review routes
	mux.HandleFunc("POST /api/documents/{id}/reviewers", reviewHandler.AssignReviewers)
	mux.HandleFunc("POST /api/documents/{id}/review", reviewHandler.Review)
	mux.HandleFunc("POST /api/documents/{id}/finalize", reviewHandler.Finalize)
	mux.HandleFunc("POST /api/documents/{id}/archive", reviewHandler.Archive)

	// Generation routes
	mux.HandleFunc("POST /api/documents/{id}/generate", generateHandler.Generate)
	mux.HandleFunc("GET /api/providers", generateHandler.ListProviders)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	httpHandler = middleware.Auth(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // generation calls can run long
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
