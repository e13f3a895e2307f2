package classify

import (
	"math"
	"math/rand"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"gonum.org/v1/gonum/stat"
)

// SVMParams configures the linear SVM solver.
type SVMParams struct {
	// C is the soft-margin penalty. A negative value selects |C| times
	// 1/mean(||x||^2) of the training samples.
	C float64
	// MaxIter bounds the coordinate-descent sweeps.
	MaxIter int
	// Epsilon is the projected-gradient stopping tolerance.
	Epsilon float64
	// Seed drives the coordinate visiting order.
	Seed int64
}

// DefaultSVMParams mirrors a libsvm linear C-SVC with scaled C.
func DefaultSVMParams() SVMParams {
	return SVMParams{C: -1, MaxIter: 1000, Epsilon: 0.1, Seed: 1}
}

// linearSVM is a trained binary hyperplane: positive side is class +1.
type linearSVM struct {
	W []float64
	B float64
}

func (m linearSVM) decision(x []float64) float64 {
	return floats.Dot(m.W, x) + m.B
}

// scaledC resolves a negative C against the training rows.
func scaledC(x *mat64.Dense, rows []int, c float64) float64 {
	if c > 0 {
		return c
	}
	sq := make([]float64, len(rows))
	for i, r := range rows {
		row := x.RawRowView(r)
		sq[i] = floats.Dot(row, row)
	}
	mean := stat.Mean(sq, nil)
	if mean == 0 {
		return math.Abs(c)
	}
	return math.Abs(c) / mean
}

// trainLinearSVM solves the L1-loss SVM dual by coordinate descent with the
// bias folded in as a constant feature. y holds +1/-1 per entry of rows.
func trainLinearSVM(x *mat64.Dense, rows []int, y []float64, params SVMParams) linearSVM {
	_, d := x.Dims()
	n := len(rows)
	c := scaledC(x, rows, params.C)

	w := make([]float64, d)
	var b float64
	alpha := make([]float64, n)
	qd := make([]float64, n)
	order := make([]int, n)
	for i, r := range rows {
		row := x.RawRowView(r)
		qd[i] = floats.Dot(row, row) + 1
		order[i] = i
	}

	rng := rand.New(rand.NewSource(params.Seed))
	for iter := 0; iter < params.MaxIter; iter++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			row := x.RawRowView(rows[i])
			g := y[i]*(floats.Dot(w, row)+b) - 1

			var pg float64
			switch {
			case alpha[i] == 0:
				if g < 0 {
					pg = g
				}
			case alpha[i] == c:
				if g > 0 {
					pg = g
				}
			default:
				pg = g
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = math.Min(math.Max(alpha[i]-g/qd[i], 0), c)
				delta := (alpha[i] - old) * y[i]
				floats.AddScaled(w, delta, row)
				b += delta
			}
		}

		if pgMax-pgMin <= params.Epsilon {
			break
		}
	}

	return linearSVM{W: w, B: b}
}
