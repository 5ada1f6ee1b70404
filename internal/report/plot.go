// Package report renders batch reports into document sinks: PNG plots
// via gonum/plot and PDF documents via gofpdf. The package consumes
// engine reports as-is and never recomputes statistics.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/trialmetrics/trialstat/internal/engine"
)

// Plot canvas dimensions in points.
var (
	plotWidth  = vg.Points(800)
	plotHeight = vg.Points(400)
)

var (
	meanColor = color.RGBA{B: 255, A: 255}
	maxColor  = color.RGBA{R: 255, A: 255}
	minColor  = color.RGBA{G: 128, B: 128, A: 255}
)

// PlotOptions controls plot annotations.
type PlotOptions struct {
	// Threshold draws a dashed horizontal marker at the given value when
	// non-zero, in the same units as the plotted statistics.
	Threshold float64
}

// PlotTable renders the per-column mean, max, and min of one table as
// line series over the column index, encoded as PNG.
func PlotTable(rep engine.TableReport, opts PlotOptions) ([]byte, error) {
	if len(rep.Columns) == 0 {
		return nil, fmt.Errorf("table %q has no column summaries", rep.Source)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d rows x %d cols)", rep.Source, rep.Rows, rep.Cols)
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	means := make(plotter.XYs, len(rep.Columns))
	maxs := make(plotter.XYs, len(rep.Columns))
	mins := make(plotter.XYs, len(rep.Columns))
	for i, col := range rep.Columns {
		x := float64(col.Column + 1)
		means[i] = plotter.XY{X: x, Y: col.Mean}
		maxs[i] = plotter.XY{X: x, Y: col.Max}
		mins[i] = plotter.XY{X: x, Y: col.Min}
	}
	p.X.Tick.Marker = plot.ConstantTicks(indexTicks(len(rep.Columns)))

	if err := addSeries(p, "Mean", means, meanColor); err != nil {
		return nil, err
	}
	if err := addSeries(p, "Max", maxs, maxColor); err != nil {
		return nil, err
	}
	if err := addSeries(p, "Min", mins, minColor); err != nil {
		return nil, err
	}
	if opts.Threshold != 0 {
		if err := addThresholdLine(p, opts.Threshold, 0.5, float64(len(rep.Columns))+0.5); err != nil {
			return nil, err
		}
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(10)

	return encodePNG(p)
}

// PlotBatch renders the whole-table mean, max, and min of each table in
// the batch as line series over the table position, with a dashed marker
// at the batch mean of means, encoded as PNG.
func PlotBatch(rep engine.BatchReport, opts PlotOptions) ([]byte, error) {
	if len(rep.Reports) == 0 {
		return nil, fmt.Errorf("batch has no table reports")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Batch overview (%d tables)", rep.Summary.Tables)
	p.X.Label.Text = "Table"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	means := make(plotter.XYs, len(rep.Reports))
	maxs := make(plotter.XYs, len(rep.Reports))
	mins := make(plotter.XYs, len(rep.Reports))
	for i := range rep.Reports {
		x := float64(i + 1)
		means[i] = plotter.XY{X: x, Y: rep.Reports[i].Table.Mean}
		maxs[i] = plotter.XY{X: x, Y: rep.Reports[i].Table.Max}
		mins[i] = plotter.XY{X: x, Y: rep.Reports[i].Table.Min}
	}
	p.X.Tick.Marker = plot.ConstantTicks(indexTicks(len(rep.Reports)))

	if err := addSeries(p, "Mean", means, meanColor); err != nil {
		return nil, err
	}
	if err := addSeries(p, "Max", maxs, maxColor); err != nil {
		return nil, err
	}
	if err := addSeries(p, "Min", mins, minColor); err != nil {
		return nil, err
	}

	xMax := float64(len(rep.Reports)) + 0.5
	batchLine, err := plotter.NewLine(plotter.XYs{
		{X: 0.5, Y: rep.Summary.MeanOfMeans},
		{X: xMax, Y: rep.Summary.MeanOfMeans},
	})
	if err != nil {
		return nil, fmt.Errorf("building batch mean line: %w", err)
	}
	batchLine.Color = color.Gray{Y: 128}
	batchLine.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(batchLine)
	p.Legend.Add(fmt.Sprintf("Batch mean %.2f", rep.Summary.MeanOfMeans), batchLine)

	if opts.Threshold != 0 {
		if err := addThresholdLine(p, opts.Threshold, 0.5, xMax); err != nil {
			return nil, err
		}
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(10)

	return encodePNG(p)
}

// addSeries adds one labeled line series to the plot.
func addSeries(p *plot.Plot, label string, pts plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building %s series: %w", label, err)
	}
	line.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// addThresholdLine draws a dashed horizontal marker at y.
func addThresholdLine(p *plot.Plot, y, xMin, xMax float64) error {
	line, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: y}, {X: xMax, Y: y}})
	if err != nil {
		return fmt.Errorf("building threshold line: %w", err)
	}
	line.Color = color.RGBA{R: 255, A: 255}
	line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("Threshold %.1f", y), line)
	return nil
}

// indexTicks labels each 1-based position on the X axis.
func indexTicks(n int) []plot.Tick {
	ticks := make([]plot.Tick, n)
	for i := range ticks {
		ticks[i] = plot.Tick{Value: float64(i + 1), Label: strconv.Itoa(i + 1)}
	}
	return ticks
}

// encodePNG renders the plot to PNG bytes.
func encodePNG(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("creating plot writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding plot: %w", err)
	}
	return buf.Bytes(), nil
}
