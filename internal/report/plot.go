package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/KyungWonPark/Decoding/internal/classify"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch

	// Chance is the a priori accuracy of a three-way decision.
	Chance = 0.333
)

func finite(values []float64) plotter.Values {
	var vs plotter.Values
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vs = append(vs, v)
		}
	}
	return vs
}

// AccuracyPlot draws accuracy against delay, skipping failed delays.
func AccuracyPlot(path string, delays []Delay) error {
	p := plot.New()
	p.Title.Text = "Cross-validated accuracy"
	p.X.Label.Text = "HRF delay (ms)"
	p.Y.Label.Text = "accuracy"

	var xys plotter.XYs
	for _, d := range delays {
		if d.Err == nil && !math.IsNaN(d.Accuracy) {
			xys = append(xys, plotter.XY{X: d.Delay, Y: d.Accuracy})
		}
	}
	if len(xys) > 0 {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("report: %s: %w", path, err)
		}
		p.Add(line)
	}

	return save(p, path)
}

// Histogram draws the finite values of values in bins bins. A positive
// normalize scales the bar areas to sum to it.
func Histogram(path, title string, values []float64, bins int, normalize float64) error {
	p := plot.New()
	p.Title.Text = title

	if err := addHist(p, values, bins, normalize); err != nil {
		return fmt.Errorf("report: %s: %w", path, err)
	}
	return save(p, path)
}

func addHist(p *plot.Plot, values []float64, bins int, normalize float64) error {
	vs := finite(values)
	if len(vs) == 0 {
		return nil
	}

	h, err := plotter.NewHist(vs, bins)
	if err != nil {
		return err
	}
	if normalize > 0 {
		h.Normalize(normalize)
	}
	p.Add(h)
	return nil
}

// NullDistPlot draws the normalized null accuracies in 100 bins over
// [0, 1] with the observed accuracy in red and chance dashed.
func NullDistPlot(path string, null []float64, observed float64) error {
	p := plot.New()
	p.X.Label.Text = "Average cross-validated classification accuracy"

	if err := addHist(p, null, 100, 1); err != nil {
		return fmt.Errorf("report: %s: %w", path, err)
	}

	top := p.Y.Max
	if math.IsInf(top, 0) || top <= 0 {
		top = 1
	}
	marks := []struct {
		x      float64
		color  color.Color
		dashes []vg.Length
	}{
		{observed, color.RGBA{R: 255, A: 255}, nil},
		{Chance, color.Black, []vg.Length{vg.Points(4), vg.Points(4)}},
	}
	for _, m := range marks {
		if math.IsNaN(m.x) {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{{X: m.x, Y: 0}, {X: m.x, Y: top}})
		if err != nil {
			return fmt.Errorf("report: %s: %w", path, err)
		}
		line.Color = m.color
		line.Dashes = m.dashes
		p.Add(line)
	}

	p.X.Min, p.X.Max = 0, 1
	return save(p, path)
}

// confusionGrid adapts a confusion matrix to plotter.GridXYZ: columns are
// targets, rows predictions.
type confusionGrid struct {
	c *classify.ConfusionMatrix
}

func (g confusionGrid) Dims() (c, r int) { return len(g.c.Labels), len(g.c.Labels) }
func (g confusionGrid) Z(c, r int) float64 { return float64(g.c.Counts[r][c]) }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }

// ConfusionPlot draws the confusion matrix as a heat map.
func ConfusionPlot(path string, c *classify.ConfusionMatrix) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Confusion matrix, ACC %.2f", c.Accuracy())
	p.X.Label.Text = "targets"
	p.Y.Label.Text = "predictions"

	if len(c.Labels) > 0 {
		hm := plotter.NewHeatMap(confusionGrid{c}, palette.Heat(16, 1))
		if hm.Max <= hm.Min {
			hm.Max = hm.Min + 1
		}
		p.Add(hm)

		ticks := make([]plot.Tick, len(c.Labels))
		for i, l := range c.Labels {
			ticks[i] = plot.Tick{Value: float64(i), Label: l}
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
		p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	}

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
