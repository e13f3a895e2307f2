// Package label aligns BOLD volumes with design-matrix events at a given
// hemodynamic response delay.
package label

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KyungWonPark/Decoding/internal/attr"
	"github.com/KyungWonPark/Decoding/internal/dataset"
)

// ErrAlignment is returned when a retained volume has no preceding event.
var ErrAlignment = errors.New("label: no event precedes volume")

// Label returns the volumes acquired at least hrfDelay ms after the first
// event, each carrying the attributes of the latest event whose onset is
// no later than the volume time minus hrfDelay.
//
// Volume times are read as seconds, converted to milliseconds and shifted
// by sliceTimingReference. Event onsets are re-based onto the first event.
// Neither ds nor events is modified.
func Label(ds *dataset.Dataset, events attr.Table, sliceTimingReference, hrfDelay float64) (*dataset.Dataset, error) {
	if events.Len() == 0 {
		return nil, fmt.Errorf("%w: empty event table", ErrAlignment)
	}

	table := events.Rebased()
	m := newMatcher(table)

	var keep []int
	var labeled []dataset.Sample
	for i, s := range ds.Attrs {
		t := s.TimeCoord*1000 + sliceTimingReference
		if t < hrfDelay {
			continue
		}

		idx, ok := m.floor(t - hrfDelay)
		if !ok {
			return nil, fmt.Errorf("%w: volume %d at %gms, delay %gms", ErrAlignment, s.TimeIndex, t, hrfDelay)
		}

		keep = append(keep, i)
		labeled = append(labeled, dataset.Sample{
			TimeIndex: s.TimeIndex,
			TimeCoord: t,
			Event:     table.Events[idx],
			Targets:   s.Targets,
		})
	}

	return ds.Select(keep).WithAttrs(labeled)
}

// matcher answers "latest onset <= t" queries. Among events sharing an
// onset the first one in file order wins.
type matcher struct {
	onsets []float64
	index  []int
}

func newMatcher(t attr.Table) matcher {
	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.Events[order[a]].Onset < t.Events[order[b]].Onset
	})

	var m matcher
	for _, i := range order {
		onset := t.Events[i].Onset
		if n := len(m.onsets); n > 0 && m.onsets[n-1] == onset {
			continue
		}
		m.onsets = append(m.onsets, onset)
		m.index = append(m.index, i)
	}
	return m
}

func (m matcher) floor(t float64) (int, bool) {
	i := sort.Search(len(m.onsets), func(i int) bool { return m.onsets[i] > t })
	if i == 0 {
		return -1, false
	}
	return m.index[i-1], true
}
