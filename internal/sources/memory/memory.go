// Package memory is a transaction source kept in memory and optionally
// persisted to a JSON file in the same shape the Lunch Money API returns.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"confronto/internal/core"
	"confronto/internal/sources"
)

type Store struct {
	mu    sync.Mutex
	path  string
	items []core.RawTransaction
}

var (
	_ sources.TransactionSource = (*Store)(nil)
	_ sources.TransactionWriter = (*Store)(nil)
)

type fileFormat struct {
	Transactions []core.RawTransaction `json:"transactions"`
}

func New(items []core.RawTransaction) *Store {
	return &Store{items: append([]core.RawTransaction(nil), items...)}
}

// NewFromFile loads the store from path. A missing file yields an empty
// store that creates the file on the first write.
func NewFromFile(path string) (*Store, error) {
	s := &Store{path: path}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f fileFormat
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s.items = f.Transactions
	return s, nil
}

// FetchTransactions returns the stored records dated within [start, end].
func (s *Store) FetchTransactions(_ context.Context, start, end core.Date) ([]core.RawTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.RawTransaction
	for i, r := range s.items {
		in, err := inRange(r, start, end)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if in {
			out = append(out, r)
		}
	}
	return out, nil
}

// ReplaceRange drops every record dated within [start, end] and stores txs
// in their place.
func (s *Store) ReplaceRange(_ context.Context, start, end core.Date, txs []core.RawTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]core.RawTransaction, 0, len(s.items)+len(txs))
	for i, r := range s.items {
		in, err := inRange(r, start, end)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if !in {
			kept = append(kept, r)
		}
	}
	kept = append(kept, txs...)

	if err := s.save(kept); err != nil {
		return err
	}
	s.items = kept
	return nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) save(items []core.RawTransaction) error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(fileFormat{Transactions: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}

func inRange(r core.RawTransaction, start, end core.Date) (bool, error) {
	d, err := core.ParseRecordDate(r.Date)
	if err != nil {
		return false, err
	}
	return !d.Before(start) && !d.After(end), nil
}
