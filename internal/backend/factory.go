package backend

import (
	"context"
	"fmt"
	"log/slog"

	"confronto/internal/cache"
	"confronto/internal/core"
	"confronto/internal/sources"
	"confronto/internal/sources/google"
	"confronto/internal/sources/lunchmoney"
	"confronto/internal/sources/memory"
	"confronto/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	caches *cache.Manager
}

var _ Factory = (*DefaultFactory)(nil)

// NewFactory creates a source factory. Caches of remote sources are
// registered with caches when it is not nil.
func NewFactory(logger *slog.Logger, caches *cache.Manager) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, caches: caches}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case LunchMoneySource:
		res = f.createLunchMoneySource(config)
	case SheetsSource:
		res, err = f.createSheetsSource(ctx, config)
	case SQLiteSource:
		res, err = f.createSQLiteSource(config)
	case MemorySource:
		res, err = f.createMemorySource(config)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	res.Type = config.Type

	if config.cacheEnabled() {
		lru := cache.NewLRUCache[[]core.RawTransaction](config.CacheSize, config.CacheTTL)
		if f.caches != nil {
			f.caches.Register(lru)
		}
		res.Source = sources.NewCached(res.Source, lru)
		res.Cached = true
	}

	f.logger.Info("Initialized transaction source",
		"source", config.Type.String(),
		"cached", res.Cached)
	return res, nil
}

func (f *DefaultFactory) createLunchMoneySource(config Config) *Result {
	client := lunchmoney.NewClient(config.LunchMoneyHostname, config.LunchMoneyAPIKey,
		lunchmoney.WithTimeout(config.HTTPTimeout))
	return &Result{Source: client}
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (*Result, error) {
	client, err := google.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName,
		config.GoogleCredentials, config.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return &Result{Source: client}, nil
}

func (f *DefaultFactory) createSQLiteSource(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	return &Result{Source: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemorySource(config Config) (*Result, error) {
	store, err := memory.NewFromFile(config.MemoryDataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory source: %w", err)
	}
	f.logger.Info("Loaded memory source", "path", config.MemoryDataFile, "count", store.Len())
	return &Result{Source: store}, nil
}
