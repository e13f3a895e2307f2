package classify

import (
	"sort"

	"github.com/gonum/matrix/mat64"
)

// Sensitivity is the hyperplane normal of one pairwise comparison, in the
// full voxel space of the training data.
type Sensitivity struct {
	A       string
	B       string
	Weights []float64
}

// Pair reports whether s compares a and b, in either order.
func (s Sensitivity) Pair(a, b string) bool {
	return (s.A == a && s.B == b) || (s.A == b && s.B == a)
}

// pairwise is a one-vs-one ensemble over sorted class labels.
type pairwise struct {
	labels []string
	pairs  [][2]int
	models []linearSVM
}

func sortedLabels(targets []string) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, t := range targets {
		if !seen[t] {
			seen[t] = true
			labels = append(labels, t)
		}
	}
	sort.Strings(labels)
	return labels
}

func trainPairwise(x *mat64.Dense, targets []string, params SVMParams) (*pairwise, error) {
	labels := sortedLabels(targets)
	if len(labels) < 2 {
		return nil, ErrSingleClass
	}

	m := &pairwise{labels: labels}
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			var rows []int
			var y []float64
			for r, t := range targets {
				switch t {
				case labels[i]:
					rows = append(rows, r)
					y = append(y, 1)
				case labels[j]:
					rows = append(rows, r)
					y = append(y, -1)
				}
			}
			m.pairs = append(m.pairs, [2]int{i, j})
			m.models = append(m.models, trainLinearSVM(x, rows, y, params))
		}
	}
	return m, nil
}

// predict votes over every pair; ties go to the earliest label.
func (m *pairwise) predict(x []float64) string {
	votes := make([]int, len(m.labels))
	for k, p := range m.pairs {
		if m.models[k].decision(x) > 0 {
			votes[p[0]]++
		} else {
			votes[p[1]]++
		}
	}

	best := 0
	for i := 1; i < len(votes); i++ {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return m.labels[best]
}
