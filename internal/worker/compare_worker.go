package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"confronto/internal/amqp"
	"confronto/internal/chart"
	"confronto/internal/core"
	"confronto/internal/services"
)

// Comparer runs one comparison for a reference date.
type Comparer interface {
	Run(ctx context.Context, ref core.Date) (*services.Report, error)
}

// RenderFunc writes the chart for rep into dir and returns its path.
type RenderFunc func(rep *services.Report, dir string) (string, error)

// CompareWorker executes queued comparison requests.
type CompareWorker struct {
	comparer  Comparer
	render    RenderFunc
	outputDir string
	today     func() core.Date
}

func NewCompareWorker(comparer Comparer, outputDir string) *CompareWorker {
	return &CompareWorker{
		comparer:  comparer,
		render:    chart.Render,
		outputDir: outputDir,
		today:     core.Today,
	}
}

// WithRenderer replaces the chart renderer.
func (w *CompareWorker) WithRenderer(render RenderFunc) *CompareWorker {
	w.render = render
	return w
}

// WithClock replaces the source of "today" for requests without a date.
func (w *CompareWorker) WithClock(today func() core.Date) *CompareWorker {
	w.today = today
	return w
}

// HandleComparisonRequest runs the comparison a message asks for and
// renders its chart. Failures no retry can fix are marked amqp.ErrPermanent.
func (w *CompareWorker) HandleComparisonRequest(ctx context.Context, req *amqp.ComparisonRequest) error {
	ref, err := req.Reference(w.today())
	if err != nil {
		return fmt.Errorf("%w: %w", amqp.ErrPermanent, err)
	}

	rep, err := w.comparer.Run(ctx, ref)
	if err != nil {
		if permanent(err) {
			return fmt.Errorf("%w: compare %s: %w", amqp.ErrPermanent, ref, err)
		}
		return fmt.Errorf("compare %s: %w", ref, err)
	}

	path, err := w.render(rep, w.outputDir)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	slog.InfoContext(ctx, "Comparison request completed",
		"request_id", req.ID.String(),
		"run_id", rep.RunID.String(),
		"reference", ref.String(),
		"chart", path,
		"summary", rep.Summary)
	return nil
}

// permanent reports whether err comes from the data or the input rather
// than from a source being unreachable.
func permanent(err error) bool {
	return errors.Is(err, core.ErrInvalidInput) ||
		errors.Is(err, core.ErrEmptyData) ||
		errors.Is(err, core.ErrMalformedRecord)
}
