package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"firmdesk/internal/config"
	"firmdesk/internal/domain/models"
	"firmdesk/internal/repository/postgres"
	"firmdesk/internal/service/docs"
	"firmdesk/internal/service/generation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Clear all documents (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := clearDocuments(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear documents: %v", err)
		}
		log.Println("✅ Documents cleared")
		return
	}

	// Seed demo documents through the real services so human ids,
	// revision logs and review state are produced by production code paths.
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	versionStore := docs.NewVersionStore(docRepo, txManager, logger)
	reviewAggregator := docs.NewReviewAggregator(logger)
	lifecycle := docs.NewLifecycle(docRepo, versionStore, reviewAggregator, generation.NewRegistry(nil, logger), logger)

	admin := models.Identity{UserID: uuid.NewString(), Role: "admin"}
	associate := models.Identity{UserID: uuid.NewString(), Role: "associate"}
	reviewer := models.Identity{UserID: uuid.NewString(), Role: "manager"}

	log.Println("📄 Creating demo template...")
	template, err := lifecycle.Create(ctx, admin, models.TypeTemplate, "Quarterly Client Report",
		"# Overview\n\n# Engagement Summary\n\n# Findings\n\n# Recommendations\n", nil)
	if err != nil {
		log.Fatalf("Failed to create template: %v", err)
	}
	log.Printf("  ✓ Template %s (%s)", template.HumanID, template.ID)

	log.Println("📄 Creating demo report...")
	report, err := lifecycle.Create(ctx, associate, models.TypeReport, "Acme Corp Q3 Review",
		"Initial draft pending generated content.", &template.ID)
	if err != nil {
		log.Fatalf("Failed to create report: %v", err)
	}
	log.Printf("  ✓ Report %s (%s)", report.HumanID, report.ID)

	// A second revision plus an open review round, so the dashboard has
	// something non-trivial to show.
	if _, err := lifecycle.Edit(ctx, associate, report.ID,
		"# Overview\n\nAcme Corp engaged the firm for a third-quarter operational review.\n", "first pass"); err != nil {
		log.Fatalf("Failed to edit report: %v", err)
	}
	if _, err := lifecycle.AssignReviewers(ctx, associate, report.ID, []string{reviewer.UserID}); err != nil {
		log.Fatalf("Failed to assign reviewers: %v", err)
	}
	log.Printf("  ✓ Report at version 2, in review")

	log.Println("✅ Seed complete")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			human_id TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			sections JSONB NOT NULL DEFAULT '[]',
			current_version INTEGER NOT NULL DEFAULT 1,
			revisions JSONB NOT NULL DEFAULT '[]',
			reviewers JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'draft',
			template_id UUID,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	// The unique index on human_id backstops the sequence scan in the
	// repository; an insert that loses the race retries with the next
	// number. Soft-deleted rows stay in the index so codes are never
	// reused.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_human_id ON ` + tables.Documents + `(human_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_type_status ON ` + tables.Documents + `(doc_type, status) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_template_id ON ` + tables.Documents + `(template_id) WHERE deleted_at IS NULL`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	dropSQL := "DROP TABLE IF EXISTS " + tables.Documents + " CASCADE"
	if _, err := pool.Exec(ctx, dropSQL); err != nil {
		return err
	}
	log.Printf("  ✓ Dropped %s", tables.Documents)
	return nil
}

// clearDocuments removes all rows but keeps the schema. Note that this
// also resets the human-id sequence scan, so it is for dev only.
func clearDocuments(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	_, err := pool.Exec(ctx, "TRUNCATE "+tables.Documents)
	return err
}
