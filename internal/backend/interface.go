package backend

import (
	"context"

	"confronto/internal/sources"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// Result is a ready source and its cleanup, which may be nil.
type Result struct {
	Source  sources.TransactionSource
	Type    SourceType
	Cached  bool
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates transaction sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*Result, error)
}

// SourceType names a transaction source implementation.
type SourceType string

const (
	LunchMoneySource SourceType = "lunchmoney"
	SheetsSource     SourceType = "sheets"
	SQLiteSource     SourceType = "sqlite"
	MemorySource     SourceType = "memory"
)

// String implements fmt.Stringer
func (t SourceType) String() string {
	return string(t)
}

// IsValid returns true if the source type is known.
func (t SourceType) IsValid() bool {
	switch t {
	case LunchMoneySource, SheetsSource, SQLiteSource, MemorySource:
		return true
	default:
		return false
	}
}

// Remote reports whether the source sits behind the network and is worth
// caching.
func (t SourceType) Remote() bool {
	return t == LunchMoneySource || t == SheetsSource
}
