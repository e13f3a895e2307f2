package calc

import (
	"fmt"
	"math"
	"sync"

	"github.com/gonum/matrix/mat64"
)

func fScore(samples *mat64.Dense, groups []int, nGroups int, scores []float64, order <-chan int, wg *sync.WaitGroup) {
	rows, _ := samples.Dims()
	sums := make([]float64, nGroups)
	counts := make([]float64, nGroups)

	for {
		col, ok := <-order
		if ok {
			for g := range sums {
				sums[g] = 0
				counts[g] = 0
			}

			var total float64
			for r := 0; r < rows; r++ {
				value := samples.At(r, col)
				sums[groups[r]] += value
				counts[groups[r]]++
				total += value
			}
			grandMean := total / float64(rows)

			var between float64
			for g := range sums {
				if counts[g] == 0 {
					continue
				}
				d := sums[g]/counts[g] - grandMean
				between += counts[g] * d * d
			}

			var within float64
			for r := 0; r < rows; r++ {
				d := samples.At(r, col) - sums[groups[r]]/counts[groups[r]]
				within += d * d
			}

			dfBetween := float64(nonEmpty(counts) - 1)
			dfWithin := float64(rows - nonEmpty(counts))

			f := (between / dfBetween) / (within / dfWithin)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				f = 0
			}
			scores[col] = f

			wg.Done()
		} else {
			break
		}
	}
}

func nonEmpty(counts []float64) int {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// FScores does a one-way ANOVA per column of samples. groups[r] in
// [0, nGroups) is the class of row r. Columns without a finite F (no
// within-group variance, a single group) score 0.
func (p *PipeLine) FScores(samples *mat64.Dense, groups []int, nGroups int, scores []float64) error {
	rows, cols := samples.Dims()

	{ // Check dimensions
		if len(groups) != rows {
			return fmt.Errorf("calc: FScores: %d rows but %d group labels", rows, len(groups))
		}
		if len(scores) != cols {
			return fmt.Errorf("calc: FScores: %d columns but %d score slots", cols, len(scores))
		}
		for _, g := range groups {
			if g < 0 || g >= nGroups {
				return fmt.Errorf("calc: FScores: group %d outside [0, %d)", g, nGroups)
			}
		}
	}

	workers := p.numPoper
	if workers > cols {
		workers = cols
	}

	order := make(chan int, workers)
	var wg sync.WaitGroup

	wg.Add(cols)

	for i := 0; i < workers; i++ {
		go fScore(samples, groups, nGroups, scores, order, &wg)
	}

	for i := 0; i < cols; i++ {
		order <- i
	}

	wg.Wait()
	close(order)

	return nil
}
