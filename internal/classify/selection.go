package classify

import (
	"math"
	"sort"
)

// tailSize returns how many of n features a fraction keeps: at least one.
func tailSize(fraction float64, n int) int {
	k := int(math.Floor(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// selectUpperTail returns the indices of the highest scores, ascending.
// Equal scores prefer the lower index.
func selectUpperTail(scores []float64, fraction float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	selected := append([]int(nil), order[:tailSize(fraction, len(scores))]...)
	sort.Ints(selected)
	return selected
}
