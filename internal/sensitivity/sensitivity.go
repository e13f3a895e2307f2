// Package sensitivity turns pairwise classifier weights into voxel
// importance maps.
package sensitivity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KyungWonPark/Decoding/internal/calc"
	"github.com/KyungWonPark/Decoding/internal/classify"
	"github.com/gonum/floats"
)

var (
	// ErrComparisonMismatch is returned when the classifier did not report
	// exactly the happy/neutral, sad/neutral and happy/sad comparisons.
	ErrComparisonMismatch = errors.New("sensitivity: unexpected pairwise comparisons")

	// ErrEmpty is returned when there is nothing to normalize.
	ErrEmpty = errors.New("sensitivity: no weights")
)

// Maps holds the three exported importance maps.
type Maps struct {
	// All combines every comparison.
	All []float64
	// EmoVsNeu combines happy/neutral and sad/neutral.
	EmoVsNeu []float64
	// HapVsSad is happy/sad alone.
	HapVsSad []float64
}

// Aggregator normalizes weight vectors on a compute PipeLine.
type Aggregator struct {
	pl *calc.PipeLine
}

// New returns an Aggregator running on pl.
func New(pl *calc.PipeLine) *Aggregator {
	return &Aggregator{pl: pl}
}

// NormalizeWeights takes |v| of every vector, scales it to unit L2 norm,
// sums them, rescales the sum to a maximum of 1 and zeroes every element
// below the top significance fraction. The inputs are not modified.
func (a *Aggregator) NormalizeWeights(vectors [][]float64, significance float64) ([]float64, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmpty
	}
	n := len(vectors[0])

	total := make([]float64, n)
	normed := make([]float64, n)
	for i, v := range vectors {
		if len(v) != n {
			return nil, fmt.Errorf("sensitivity: vector %d has %d weights, want %d", i, len(v), n)
		}
		for j, w := range v {
			normed[j] = math.Abs(w)
		}
		if norm := floats.Norm(normed, 2); norm > 0 {
			floats.Scale(1/norm, normed)
		}
		if len(vectors) == 1 {
			copy(total, normed)
			break
		}
		if err := a.pl.Acc(normed, total); err != nil {
			return nil, err
		}
	}

	if peak := floats.Max(total); peak > 0 {
		floats.Scale(1/peak, total)
	}

	out := make([]float64, n)
	if err := a.pl.Threshold(total, out, quantile(total, significance), 0); err != nil {
		return nil, err
	}
	return out, nil
}

// quantile returns the smallest of the round(n*significance) largest
// values. Fewer than one kept value keeps everything.
func quantile(values []float64, significance float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	k := int(math.Round(float64(len(sorted)) * significance))
	if k < 1 || k > len(sorted) {
		return sorted[0]
	}
	return sorted[len(sorted)-k]
}

// Maps picks the happy/neutral, sad/neutral and happy/sad comparisons out
// of sens, whatever their order, and aggregates them.
func (a *Aggregator) Maps(sens []classify.Sensitivity, significance float64) (*Maps, error) {
	if len(sens) != 3 {
		return nil, fmt.Errorf("%w: got %d comparisons", ErrComparisonMismatch, len(sens))
	}

	hapNeu, err := find(sens, "happy", "neutral")
	if err != nil {
		return nil, err
	}
	sadNeu, err := find(sens, "sad", "neutral")
	if err != nil {
		return nil, err
	}
	hapSad, err := find(sens, "happy", "sad")
	if err != nil {
		return nil, err
	}

	var m Maps
	if m.All, err = a.NormalizeWeights([][]float64{hapNeu, sadNeu, hapSad}, significance); err != nil {
		return nil, err
	}
	if m.EmoVsNeu, err = a.NormalizeWeights([][]float64{hapNeu, sadNeu}, significance); err != nil {
		return nil, err
	}
	if m.HapVsSad, err = a.NormalizeWeights([][]float64{hapSad}, significance); err != nil {
		return nil, err
	}
	return &m, nil
}

func find(sens []classify.Sensitivity, a, b string) ([]float64, error) {
	for _, s := range sens {
		if s.Pair(a, b) {
			return s.Weights, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s/%s comparison", ErrComparisonMismatch, a, b)
}

// Sum adds the raw weights of every comparison.
func Sum(sens []classify.Sensitivity) []float64 {
	if len(sens) == 0 {
		return nil
	}
	sum := make([]float64, len(sens[0].Weights))
	for _, s := range sens {
		floats.Add(sum, s.Weights)
	}
	return sum
}

// NonZeroProportion returns the fraction of non-zero weights.
func NonZeroProportion(weights []float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	nz := 0
	for _, w := range weights {
		if w != 0 {
			nz++
		}
	}
	return float64(nz) / float64(len(weights))
}
