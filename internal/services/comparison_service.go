package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"confronto/internal/core"
	"confronto/internal/sources"
)

// Report is the outcome of one comparison run, with everything a renderer
// needs.
type Report struct {
	RunID      uuid.UUID
	Reference  core.Date
	Boundaries core.Boundaries
	Currency   string

	Current  core.MonthSeries
	Previous core.MonthSeries
	// Projected continues Current with the rest of the month's recorded
	// spending. Empty when the reference date is the last day of its month.
	Projected core.MonthSeries

	Comparable core.Comparable
	Result     core.ComparisonResult
	Summary    string
}

// Format renders an amount in the report's currency.
func (r *Report) Format(d decimal.Decimal) string {
	return core.MoneyFormatter(r.Currency)(d)
}

// ComparisonService runs month-to-date comparisons against a source.
type ComparisonService struct {
	source   sources.TransactionSource
	currency string
}

func NewComparisonService(source sources.TransactionSource, currency string) *ComparisonService {
	if currency == "" {
		currency = "USD"
	}
	return &ComparisonService{source: source, currency: currency}
}

type fetched struct {
	current, previous, full []core.RawTransaction
}

// Run compares spending from the start of ref's month up to ref with the
// previous month up to the equivalent day.
//
// No transactions at all for the current month fails with
// core.ErrEmptyData. An empty previous month compares against zero.
func (s *ComparisonService) Run(ctx context.Context, ref core.Date) (*Report, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: reference date: %v", core.ErrInvalidInput, err)
	}

	runID := uuid.New()
	b := core.CalculateBoundaries(ref)
	endOfMonth := ref.EndOfMonth()
	logger := slog.With("run_id", runID.String(), "reference", ref.String())

	raw, err := s.fetch(ctx, ref, b, endOfMonth)
	if err != nil {
		return nil, err
	}

	currentTx, err := core.Normalize(raw.current, b.StartOfCurrentMonth, ref)
	if err != nil {
		return nil, fmt.Errorf("current month: %w", err)
	}

	previousTx, err := core.Normalize(raw.previous, b.StartOfPreviousMonth, b.EndOfPreviousMonth)
	switch {
	case errors.Is(err, core.ErrEmptyData):
		logger.WarnContext(ctx, "No transactions last month, comparing against zero",
			"start", b.StartOfPreviousMonth.String(), "end", b.EndOfPreviousMonth.String())
	case err != nil:
		return nil, fmt.Errorf("previous month: %w", err)
	}

	current := core.BuildSeries(currentTx)
	previous := core.BuildSeries(previousTx)

	var projected core.MonthSeries
	if ref.Before(endOfMonth) {
		fullTx, err := core.Normalize(raw.full, b.StartOfCurrentMonth, endOfMonth)
		switch {
		case errors.Is(err, core.ErrEmptyData):
		case err != nil:
			return nil, fmt.Errorf("full month: %w", err)
		default:
			projected = core.ProjectSeries(core.BuildSeries(fullTx), ref.Day(), current)
		}
	}

	comparable := core.ComparableFor(ref, b, previous)
	result := core.Compare(current, comparable.Value)

	rep := &Report{
		RunID:      runID,
		Reference:  ref,
		Boundaries: b,
		Currency:   s.currency,
		Current:    current,
		Previous:   previous,
		Projected:  projected,
		Comparable: comparable,
		Result:     result,
	}
	rep.Summary = result.Summary(rep.Format)

	logger.InfoContext(ctx, "Comparison complete",
		"current_transactions", len(currentTx),
		"previous_transactions", len(previousTx),
		"equivalent_day", comparable.EquivalentDay,
		"comparable_day", comparable.Day,
		"current_total", result.CurrentTotal.StringFixed(2),
		"comparable_value", comparable.Value.StringFixed(2),
		"delta", result.Delta.StringFixed(2),
		"direction", string(result.Direction))

	return rep, nil
}

// fetch retrieves the three ranges concurrently. The full month is only
// needed when ref is not its last day.
func (s *ComparisonService) fetch(ctx context.Context, ref core.Date, b core.Boundaries, endOfMonth core.Date) (fetched, error) {
	var out fetched
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.source.FetchTransactions(gctx, b.StartOfCurrentMonth, ref)
		if err != nil {
			return fmt.Errorf("fetch current month: %w", err)
		}
		out.current = txs
		return nil
	})
	g.Go(func() error {
		txs, err := s.source.FetchTransactions(gctx, b.StartOfPreviousMonth, b.EndOfPreviousMonth)
		if err != nil {
			return fmt.Errorf("fetch previous month: %w", err)
		}
		out.previous = txs
		return nil
	})
	if ref.Before(endOfMonth) {
		g.Go(func() error {
			txs, err := s.source.FetchTransactions(gctx, b.StartOfCurrentMonth, endOfMonth)
			if err != nil {
				return fmt.Errorf("fetch full month: %w", err)
			}
			out.full = txs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fetched{}, err
	}
	return out, nil
}
