package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/FACorreiaa/echo-ledger/internal/api"
	"github.com/FACorreiaa/echo-ledger/internal/domain/categorization"
	cathandler "github.com/FACorreiaa/echo-ledger/internal/domain/categorization/handler"
	importhandler "github.com/FACorreiaa/echo-ledger/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/echo-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/config"
	"github.com/FACorreiaa/echo-ledger/pkg/cron"
	"github.com/FACorreiaa/echo-ledger/pkg/db"
	"github.com/FACorreiaa/echo-ledger/pkg/metrics"
	"github.com/FACorreiaa/echo-ledger/pkg/storage"
)

// ledgerStore is where imported rows go and where the previous closing
// balance of an account comes from.
type ledgerStore interface {
	importservice.Sink
	importservice.BalanceLookup
}

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Storage
	FileStorage storage.Storage
	Ledger      ledgerStore
	LedgerRepo  *ledger.Repository // nil without a database
	VocabStore  categorization.Store
	SearchIndex *ledger.SearchIndex
	Metrics     *metrics.Metrics

	// Services
	Registry              *categorization.Registry
	Vocabulary            *categorization.Vocabulary
	CategorizationService *categorization.Service
	ImportService         *importservice.ImportService
	Scheduler             *cron.Scheduler

	// Handlers
	ImportHandler         *importhandler.ImportHandler
	CategorizationHandler *cathandler.CategorizationHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	deps.initHandlers()

	logger.Debug("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase connects and migrates when DATABASE_URL is set. Without it
// the ledger and the vocabulary live in files under LEDGER_DIR.
func (d *Dependencies) initDatabase() error {
	if d.Config.Database.URL == "" {
		d.Logger.Debug("no database configured, using local files", "dir", d.Config.Storage.LedgerDir)
		return nil
	}

	database, err := db.New(db.Config{
		DSN:             d.Config.Database.URL,
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories picks the ledger and vocabulary backends
func (d *Dependencies) initRepositories() error {
	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageTypeLocal,
		LocalPath: d.Config.Storage.LedgerDir,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	if d.DB != nil {
		d.LedgerRepo = ledger.NewRepository(d.DB.Pool, d.Logger)
		d.Ledger = d.LedgerRepo
		d.VocabStore = categorization.NewPostgresStore(d.DB.Pool, d.Logger)
	} else {
		d.Ledger = ledger.NewFileSink(fileStorage, d.Logger)
		d.VocabStore = categorization.NewFileStore(fileStorage, d.Config.Storage.VocabularyPath)
	}

	indexPath := d.Config.Storage.SearchIndexPath
	if indexPath == "" {
		indexPath = filepath.Join(d.Config.Storage.LedgerDir, "search.bleve")
	}
	d.SearchIndex, err = ledger.NewSearchIndex(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}

	d.Logger.Debug("repositories initialized", "database", d.DB != nil, "index", indexPath)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	registry, err := loadRegistry(d.Config.Storage.CategoriesPath)
	if err != nil {
		return err
	}
	d.Registry = registry

	scorer := categorization.Scorer{
		ShortWordWeight: d.Config.Classifier.ShortWordWeight,
		ShortWordLength: d.Config.Classifier.ShortWordLength,
		MinConfidence:   d.Config.Classifier.MinConfidence,
	}
	d.Vocabulary = categorization.NewVocabulary(d.VocabStore, scorer, d.Logger)
	if err := d.Vocabulary.Load(ctx); err != nil {
		return err
	}
	d.CategorizationService = categorization.NewService(d.Vocabulary, d.Registry, d.Metrics, d.Logger)

	// Resolution defaults to refusing ambiguous maps; the import command
	// swaps in an interactive resolver.
	d.ImportService = importservice.NewImportService(importservice.AutoResolver{}, d.Ledger, d.Ledger, d.Metrics, d.Logger).
		WithIndexer(d.SearchIndex)

	d.Scheduler = cron.NewScheduler(d.Vocabulary, d.Config.Scheduler.VocabularyFlush, d.Logger)

	d.Logger.Debug("services initialized", "vocabulary_words", d.Vocabulary.Size())
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)
	d.CategorizationHandler = cathandler.NewCategorizationHandler(d.CategorizationService, d.Logger)
}

// Handlers groups what the HTTP router serves
func (d *Dependencies) Handlers() api.Handlers {
	return api.Handlers{
		Import:         d.ImportHandler,
		Categorization: d.CategorizationHandler,
		Search:         d.SearchIndex,
		Metrics:        d.Metrics,
	}
}

// Cleanup flushes the vocabulary and closes all resources
func (d *Dependencies) Cleanup() {
	if d.Vocabulary != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := d.Vocabulary.Flush(ctx); err != nil {
			d.Logger.Error("failed to flush vocabulary", "error", err)
		}
		cancel()
	}
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", "error", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Debug("cleanup completed")
}

func loadRegistry(path string) (*categorization.Registry, error) {
	if path == "" {
		return categorization.DefaultRegistry()
	}
	reg, err := categorization.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories from %s: %w", path, err)
	}
	return reg, nil
}
