// Package sources defines where raw transactions come from.
package sources

import (
	"context"

	"confronto/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionSource returns the raw transactions dated within
	// [start, end], both inclusive. An empty result is not an error.
	TransactionSource interface {
		FetchTransactions(ctx context.Context, start, end core.Date) ([]core.RawTransaction, error)
	}

	// TransactionWriter replaces the stored transactions of a date range.
	TransactionWriter interface {
		ReplaceRange(ctx context.Context, start, end core.Date, txs []core.RawTransaction) error
	}
)
