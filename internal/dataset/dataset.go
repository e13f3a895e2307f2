// Package dataset pairs a volumes-by-voxels sample matrix with per-volume
// attributes. Selections share the underlying matrix and never modify it.
package dataset

import (
	"errors"
	"fmt"

	"github.com/KyungWonPark/Decoding/internal/attr"
	"github.com/gonum/matrix/mat64"
)

// ErrShape is returned when attributes and samples disagree in length.
var ErrShape = errors.New("dataset: shape mismatch")

// Sample holds the attributes of one acquired volume.
type Sample struct {
	// TimeIndex is the ordinal position of the volume in the acquisition.
	TimeIndex int
	// TimeCoord is the acquisition time, seconds when loaded and
	// slice-timing corrected milliseconds once labeled.
	TimeCoord float64
	// Event is the design-matrix row matched by the labeler.
	Event attr.Event
	// Targets is the class label consumed by the classifier.
	Targets string
}

// Block returns the acquisition block of the matched event.
func (s Sample) Block() string { return s.Event.Block }

// Emotion returns the emotion category of the matched event.
func (s Sample) Emotion() string { return s.Event.Emotion }

// Dataset is a view over rows of a shared sample matrix.
type Dataset struct {
	samples *mat64.Dense
	rows    []int
	Attrs   []Sample
}

// New wraps samples, one row per volume, with their attributes.
func New(samples *mat64.Dense, attrs []Sample) (*Dataset, error) {
	if samples == nil {
		return nil, fmt.Errorf("%w: nil samples", ErrShape)
	}
	r, _ := samples.Dims()
	if r != len(attrs) {
		return nil, fmt.Errorf("%w: %d rows, %d attribute sets", ErrShape, r, len(attrs))
	}

	rows := make([]int, r)
	for i := range rows {
		rows[i] = i
	}
	return &Dataset{samples: samples, rows: rows, Attrs: attrs}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.rows) }

// NFeatures returns the number of voxels per sample.
func (d *Dataset) NFeatures() int {
	_, c := d.samples.Dims()
	return c
}

// Row returns the voxel values of sample i. The slice aliases the shared
// matrix and must not be written to.
func (d *Dataset) Row(i int) []float64 {
	return d.samples.RawRowView(d.rows[i])
}

// Select returns the samples at idx, in the order given.
func (d *Dataset) Select(idx []int) *Dataset {
	out := &Dataset{
		samples: d.samples,
		rows:    make([]int, len(idx)),
		Attrs:   make([]Sample, len(idx)),
	}
	for i, j := range idx {
		out.rows[i] = d.rows[j]
		out.Attrs[i] = d.Attrs[j]
	}
	return out
}

// Where returns the samples for which keep is true, preserving order.
func (d *Dataset) Where(keep func(Sample) bool) *Dataset {
	var idx []int
	for i, s := range d.Attrs {
		if keep(s) {
			idx = append(idx, i)
		}
	}
	return d.Select(idx)
}

// Concat appends the samples of others to d. All datasets must share the
// same sample matrix.
func (d *Dataset) Concat(others ...*Dataset) (*Dataset, error) {
	out := &Dataset{
		samples: d.samples,
		rows:    append([]int(nil), d.rows...),
		Attrs:   append([]Sample(nil), d.Attrs...),
	}
	for _, o := range others {
		if o.samples != d.samples {
			return nil, fmt.Errorf("%w: datasets do not share samples", ErrShape)
		}
		out.rows = append(out.rows, o.rows...)
		out.Attrs = append(out.Attrs, o.Attrs...)
	}
	return out, nil
}

// WithAttrs returns a dataset over the same rows carrying attrs.
func (d *Dataset) WithAttrs(attrs []Sample) (*Dataset, error) {
	if len(attrs) != len(d.rows) {
		return nil, fmt.Errorf("%w: %d rows, %d attribute sets", ErrShape, len(d.rows), len(attrs))
	}
	return &Dataset{samples: d.samples, rows: d.rows, Attrs: attrs}, nil
}

// Targets returns the class label of every sample.
func (d *Dataset) Targets() []string {
	targets := make([]string, len(d.Attrs))
	for i, s := range d.Attrs {
		targets[i] = s.Targets
	}
	return targets
}

// Matrix copies the samples into a new dense matrix restricted to the
// given voxel columns. A nil features slice keeps every voxel. It returns
// nil for an empty selection.
func (d *Dataset) Matrix(features []int) *mat64.Dense {
	n := len(d.rows)
	cols := len(features)
	if features == nil {
		cols = d.NFeatures()
	}
	if n == 0 || cols == 0 {
		return nil
	}

	m := mat64.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		src := d.Row(i)
		dst := m.RawRowView(i)
		if features == nil {
			copy(dst, src)
			continue
		}
		for j, f := range features {
			dst[j] = src[f]
		}
	}
	return m
}
