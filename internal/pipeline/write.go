package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/Decoding/internal/io"
	"github.com/KyungWonPark/Decoding/internal/report"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Output file names.
const (
	TimeSeriesFile = "result-time-series"
	ResultDistFile = "result-dist.svg"
	ConfMatrixFile = "conf-matrix"
	NullDistFile   = "null-dist"
	WeightsDist    = "weights-dist.svg"
	AllWeights     = "all-weights-nn"
	EmoVsNeu       = "emo-vs-neu-weights-nn"
	HapVsSad       = "hap_vs_sad-weights-nn"
)

// MapWriter writes per-voxel weights as an image.
type MapWriter interface {
	WriteMap(path string, weights []float64) error
}

// WriteSweep writes the per-delay report, its numpy and csv tables and the
// accuracy plots.
func WriteSweep(dir string, delays []report.Delay) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(dir, TimeSeriesFile)

	if err := io.WriteLines(base+".txt", report.TimeSeriesLines(delays)); err != nil {
		return err
	}

	if len(delays) > 0 {
		table := mat64.NewDense(len(delays), 4, nil)
		for i, d := range delays {
			row := []float64{d.Delay, float64(d.PerClass), d.Accuracy, d.NonZero}
			if d.Err != nil {
				row = []float64{d.Delay, math.NaN(), math.NaN(), math.NaN()}
			}
			copy(table.RawRowView(i), row)
		}
		if err := io.Mat64toNpy(base+".npy", table); err != nil {
			return err
		}
		header := []string{"delay_ms", "per_class", "accuracy", "nonzero"}
		if err := io.Mat64toCSV(base+".csv", table, header); err != nil {
			return err
		}
	}

	if err := report.AccuracyPlot(base+".svg", delays); err != nil {
		return err
	}
	return report.Histogram(filepath.Join(dir, ResultDistFile), "", report.Accuracies(delays), 1000, 0)
}

// WriteFinal writes the confusion matrix, the null distribution, the
// weight histogram and the three weight maps of the best delay.
func WriteFinal(dir string, maps MapWriter, final *Final) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	conf := filepath.Join(dir, ConfMatrixFile)
	if err := io.WriteText(conf+".txt", final.CV.Confusion.String()); err != nil {
		return err
	}
	if err := report.ConfusionPlot(conf+".svg", final.CV.Confusion); err != nil {
		return err
	}

	null := filepath.Join(dir, NullDistFile)
	if err := io.F64SliceToText(null+".txt", final.Null.Samples); err != nil {
		return err
	}
	if err := io.F64SliceToNpy(null+".npy", final.Null.Samples); err != nil {
		return err
	}
	if err := report.NullDistPlot(null+".svg", final.Null.Samples, final.CV.Mean); err != nil {
		return err
	}

	if err := report.Histogram(filepath.Join(dir, WeightsDist), "", nonZeroScaled(final.Maps.All), 50, 0); err != nil {
		return err
	}

	for _, m := range []struct {
		name    string
		weights []float64
	}{
		{AllWeights, final.Maps.All},
		{EmoVsNeu, final.Maps.EmoVsNeu},
		{HapVsSad, final.Maps.HapVsSad},
	} {
		base := filepath.Join(dir, m.name)
		if err := maps.WriteMap(base+".nii.gz", m.weights); err != nil {
			return fmt.Errorf("write %s: %w", m.name, err)
		}
		if err := io.F64SliceToNpy(base+".npy", m.weights); err != nil {
			return err
		}
	}
	return nil
}

// nonZeroScaled returns the non-zero weights divided by the largest one.
func nonZeroScaled(weights []float64) []float64 {
	var out []float64
	for _, w := range weights {
		if w != 0 {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil
	}
	floats.Scale(1/floats.Max(out), out)
	return out
}
