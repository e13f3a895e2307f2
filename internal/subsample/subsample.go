// Package subsample draws a class-balanced set of volumes with at most one
// volume per acquisition block.
package subsample

import (
	"errors"
	"fmt"

	"github.com/KyungWonPark/Decoding/internal/dataset"
)

// ErrDegenerateClass is returned when some emotion keeps fewer than the
// minimum number of samples after block deduplication.
var ErrDegenerateClass = errors.New("subsample: too few samples in class")

// Categories lists the decoded emotions in output order.
var Categories = []string{"happy", "sad", "neutral"}

// Subsample keeps the earliest happy, sad or neutral volume of every block,
// then the first n volumes of each category, where n is the smallest
// category count capped at maxSamples. Output is ordered happy, sad,
// neutral, each group in acquisition order, with Targets set to the
// emotion.
//
// A cap below maxSamples is returned as is; a cap below minSamples fails
// with ErrDegenerateClass.
func Subsample(ds *dataset.Dataset, maxSamples, minSamples int) (*dataset.Dataset, error) {
	decoded := ds.Where(func(s dataset.Sample) bool {
		return isCategory(s.Emotion())
	})

	earliest := make(map[string]int)
	for _, s := range decoded.Attrs {
		if ti, ok := earliest[s.Block()]; !ok || s.TimeIndex < ti {
			earliest[s.Block()] = s.TimeIndex
		}
	}
	indep := decoded.Where(func(s dataset.Sample) bool {
		return earliest[s.Block()] == s.TimeIndex
	})

	counts := make(map[string]int, len(Categories))
	for _, s := range indep.Attrs {
		counts[s.Emotion()]++
	}
	n := maxSamples
	for _, c := range Categories {
		if counts[c] < n {
			n = counts[c]
		}
	}
	if n < minSamples {
		return nil, fmt.Errorf("%w: happy=%d sad=%d neutral=%d, need %d",
			ErrDegenerateClass, counts["happy"], counts["sad"], counts["neutral"], minSamples)
	}

	groups := make([]*dataset.Dataset, len(Categories))
	for k, c := range Categories {
		var idx []int
		for i, s := range indep.Attrs {
			if len(idx) == n {
				break
			}
			if s.Emotion() == c {
				idx = append(idx, i)
			}
		}
		groups[k] = indep.Select(idx)
	}

	balanced, err := groups[0].Concat(groups[1:]...)
	if err != nil {
		return nil, err
	}
	for i := range balanced.Attrs {
		balanced.Attrs[i].Targets = balanced.Attrs[i].Emotion()
	}
	return balanced, nil
}

// PerClass returns the number of samples per category of a balanced set.
func PerClass(ds *dataset.Dataset) int {
	return ds.Len() / len(Categories)
}

func isCategory(emotion string) bool {
	for _, c := range Categories {
		if c == emotion {
			return true
		}
	}
	return false
}
