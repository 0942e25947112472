package backend

import (
	"fmt"
	"time"

	"confronto/internal/config"
	"confronto/internal/sources/google"
)

// Config holds what the factory needs to build one source.
type Config struct {
	Type SourceType

	// Lunch Money
	LunchMoneyAPIKey   string
	LunchMoneyHostname string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleCredentials   google.Credentials

	// Local stores
	SQLiteDBPath   string
	MemoryDataFile string

	HTTPTimeout time.Duration

	// Remote sources are wrapped in an LRU cache when both are positive.
	CacheSize int
	CacheTTL  time.Duration
}

// FromAppConfig builds the factory config for the named source.
func FromAppConfig(appConfig *config.Config, source string) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(source)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid source type in config: %s", source)
	}

	return Config{
		Type: sourceType,

		LunchMoneyAPIKey:   appConfig.LunchMoneyAPIKey,
		LunchMoneyHostname: appConfig.LunchMoneyHostname,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
		GoogleCredentials: google.Credentials{
			JSON: appConfig.GoogleServiceAccountJSON,
			File: appConfig.GoogleServiceAccountFile,
		},

		SQLiteDBPath:   appConfig.SQLiteDBPath,
		MemoryDataFile: appConfig.MemoryDataFile,

		HTTPTimeout: appConfig.HTTPTimeout,
		CacheSize:   appConfig.CacheSize,
		CacheTTL:    appConfig.CacheTTL,
	}, nil
}

// Validate checks the fields the selected source needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Type)
	}

	switch c.Type {
	case LunchMoneySource:
		if c.LunchMoneyAPIKey == "" {
			return fmt.Errorf("Lunch Money API key is required for lunchmoney source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
	case SQLiteSource:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite source")
		}
	case MemorySource:
		if c.MemoryDataFile == "" {
			return fmt.Errorf("data file is required for memory source")
		}
	}
	return nil
}

func (c Config) cacheEnabled() bool {
	return c.Type.Remote() && c.CacheSize > 0 && c.CacheTTL > 0
}
