// Package report renders the decoding results as text files and SVG plots.
package report

import (
	"fmt"
	"math"

	"github.com/KyungWonPark/Decoding/internal/io"
)

// Delay is the outcome of one delay of the sweep. A non-nil Err marks a
// failed delay, distinct from a successful one scoring zero.
type Delay struct {
	Delay    float64
	PerClass int
	Accuracy float64
	NonZero  float64
	Err      error
}

// TimeSeriesLines renders one "<per class> <accuracy> <non-zero>" line per
// delay. Failed delays read "nan nan nan".
func TimeSeriesLines(delays []Delay) []string {
	lines := make([]string, len(delays))
	for i, d := range delays {
		if d.Err != nil {
			lines[i] = "nan nan nan"
			continue
		}
		lines[i] = fmt.Sprintf("%d %s %s", d.PerClass, io.FormatFloat(d.Accuracy), io.FormatFloat(d.NonZero))
	}
	return lines
}

// Accuracies returns the accuracy of every delay, NaN where it failed.
func Accuracies(delays []Delay) []float64 {
	accs := make([]float64, len(delays))
	for i, d := range delays {
		if d.Err != nil {
			accs[i] = math.NaN()
			continue
		}
		accs[i] = d.Accuracy
	}
	return accs
}

// Best returns the index of the first delay with the highest accuracy,
// or -1 when every delay failed.
func Best(delays []Delay) int {
	best := -1
	for i, d := range delays {
		if d.Err != nil {
			continue
		}
		if best < 0 || d.Accuracy > delays[best].Accuracy {
			best = i
		}
	}
	return best
}
