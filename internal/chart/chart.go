// Package chart draws the cumulative spending comparison as a PNG.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"confronto/internal/core"
	"confronto/internal/services"
)

// FileSuffix follows the reference date in chart file names.
const FileSuffix = "-cumulative_spending_comparison.png"

var (
	background  = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	foreground  = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	gridColor   = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	lastMonth   = color.RGBA{R: 0x6c, G: 0x8e, B: 0xbf, A: 0xff}
	thisMonth   = color.RGBA{R: 0xf2, G: 0x8e, B: 0x2b, A: 0xff}
	projection  = color.RGBA{R: 0xf2, G: 0x8e, B: 0x2b, A: 0x99}
	width       = 12 * vg.Inch
	height      = 7 * vg.Inch
	lineWidth   = vg.Points(2.5)
	markerSize  = vg.Points(4)
	dashPattern = []vg.Length{vg.Points(8), vg.Points(4)}
)

// FileName returns the chart file name for a reference date.
func FileName(ref core.Date) string {
	return ref.String() + FileSuffix
}

// Render draws rep into dir and returns the written path.
func Render(rep *services.Report, dir string) (string, error) {
	p, err := build(rep)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(rep.Reference))
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}
	return path, nil
}

func build(rep *services.Report) (*plot.Plot, error) {
	b := rep.Boundaries
	p := plot.New()
	applyTheme(p)

	p.Title.Text = fmt.Sprintf("Cumulative spending: %s vs %s",
		b.StartOfCurrentMonth.Format("January 2006"), b.StartOfPreviousMonth.Format("January 2006"))
	p.X.Label.Text = "Day of month"
	p.Y.Label.Text = "Spent"
	p.X.Min = 1
	p.X.Max = float64(max(b.DaysInPreviousMonth(), rep.Reference.DaysInMonth()))
	p.Y.Tick.Marker = moneyTicks{format: rep.Format}
	p.X.Tick.Marker = dayTicks{}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = vg.Points(60)

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	if err := addSeries(p, "Last month", rep.Previous, lastMonth, true); err != nil {
		return nil, err
	}
	if err := addSeries(p, "This month", rep.Current, thisMonth, true); err != nil {
		return nil, err
	}
	if err := addSeries(p, "Projected", rep.Projected, projection, false); err != nil {
		return nil, err
	}

	if err := annotate(p, rep); err != nil {
		return nil, err
	}

	p.Y.Min, p.Y.Max = yBounds(rep)
	return p, nil
}

func applyTheme(p *plot.Plot) {
	p.BackgroundColor = background
	p.Title.TextStyle.Color = foreground
	p.Legend.TextStyle.Color = foreground
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Color = foreground
		ax.LineStyle.Color = foreground
		ax.Label.TextStyle.Color = foreground
		ax.Tick.Label.Color = foreground
		ax.Tick.LineStyle.Color = foreground
	}
}

// addSeries draws s as a solid line with a marker on every day, or as a
// dashed line without markers.
func addSeries(p *plot.Plot, name string, s core.MonthSeries, c color.Color, solid bool) error {
	if len(s) == 0 {
		return nil
	}
	line, points, err := seriesPlotters(s, c, solid)
	if err != nil {
		return fmt.Errorf("%s line: %w", name, err)
	}
	if points == nil {
		p.Add(line)
		p.Legend.Add(name, line)
		return nil
	}
	p.Add(line, points)
	p.Legend.Add(name, line, points)
	return nil
}

func seriesPlotters(s core.MonthSeries, c color.Color, solid bool) (*plotter.Line, *plotter.Scatter, error) {
	if !solid {
		line, err := plotter.NewLine(xys(s))
		if err != nil {
			return nil, nil, err
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = lineWidth
		line.LineStyle.Dashes = dashPattern
		return line, nil, nil
	}

	line, points, err := plotter.NewLinePoints(xys(s))
	if err != nil {
		return nil, nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = lineWidth
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Radius = vg.Points(2.5)
	points.GlyphStyle.Color = c
	return line, points, nil
}

// annotate marks the comparable point of last month and where this month
// stands, and writes the summary in the top left corner.
func annotate(p *plot.Plot, rep *services.Report) error {
	var (
		points plotter.XYs
		labels []string
		colors []color.Color
	)
	if rep.Comparable.Found() {
		points = append(points, plotter.XY{X: float64(rep.Comparable.Day), Y: toFloat(rep.Comparable.Value)})
		labels = append(labels, fmt.Sprintf("Day %d: %s", rep.Comparable.Day, rep.Format(rep.Comparable.Value)))
		colors = append(colors, lastMonth)
	}
	if n := len(rep.Current); n > 0 {
		points = append(points, plotter.XY{X: float64(rep.Current[n-1].Day), Y: toFloat(rep.Result.CurrentTotal)})
		labels = append(labels, fmt.Sprintf("Day %d: %s", rep.Current[n-1].Day, rep.Format(rep.Result.CurrentTotal)))
		colors = append(colors, thisMonth)
	}

	if len(points) > 0 {
		sc, err := plotter.NewScatter(points)
		if err != nil {
			return fmt.Errorf("markers: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = markerSize
		sc.GlyphStyle.Color = foreground
		p.Add(sc)

		ls, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
		if err != nil {
			return fmt.Errorf("marker labels: %w", err)
		}
		for i := range ls.TextStyle {
			ls.TextStyle[i].Color = colors[i]
			ls.TextStyle[i].YAlign = text.YBottom
		}
		ls.Offset = vg.Point{X: vg.Points(6), Y: vg.Points(6)}
		p.Add(ls)
	}

	summary, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 1, Y: summaryY(rep)}},
		Labels: []string{rep.Summary},
	})
	if err != nil {
		return fmt.Errorf("summary label: %w", err)
	}
	summary.TextStyle[0].Color = foreground
	summary.TextStyle[0].XAlign = text.XLeft
	summary.TextStyle[0].YAlign = text.YTop
	summary.Offset = vg.Point{X: vg.Points(8)}
	p.Add(summary)
	return nil
}

func xys(s core.MonthSeries) plotter.XYs {
	pts := make(plotter.XYs, len(s))
	for i, pt := range s {
		pts[i].X = float64(pt.Day)
		pts[i].Y = toFloat(pt.Cumulative)
	}
	return pts
}

// valueRange spans every plotted cumulative value and zero. Refunds can
// take a series below zero.
func valueRange(rep *services.Report) (lo, hi float64) {
	for _, s := range []core.MonthSeries{rep.Previous, rep.Current, rep.Projected} {
		for _, pt := range s {
			v := toFloat(pt.Cumulative)
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	return lo, hi
}

// yBounds leaves room above the highest line for the summary.
func yBounds(rep *services.Report) (lo, hi float64) {
	lo, hi = valueRange(rep)
	span := hi - lo
	if span == 0 {
		span = 1
	}
	if lo < 0 {
		lo -= span * 0.05
	}
	return lo, hi + span*0.25
}

func summaryY(rep *services.Report) float64 {
	lo, hi := valueRange(rep)
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return hi + span*0.22
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
