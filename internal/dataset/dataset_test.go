package dataset

import (
	"testing"

	"github.com/KyungWonPark/Decoding/internal/attr"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) *Dataset {
	t.Helper()

	samples := mat64.NewDense(4, 3, []float64{
		0, 1, 2,
		10, 11, 12,
		20, 21, 22,
		30, 31, 32,
	})
	attrs := make([]Sample, 4)
	for i := range attrs {
		attrs[i] = Sample{TimeIndex: i, Event: attr.Event{Block: string(rune('a' + i%2))}}
	}

	ds, err := New(samples, attrs)
	require.NoError(t, err)
	return ds
}

func TestNewShapeMismatch(t *testing.T) {
	_, err := New(mat64.NewDense(2, 2, nil), make([]Sample, 3))
	assert.ErrorIs(t, err, ErrShape)

	_, err = New(nil, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestSelectSharesRows(t *testing.T) {
	ds := fixture(t)

	sub := ds.Select([]int{3, 1})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 3, sub.NFeatures())
	assert.Equal(t, []float64{30, 31, 32}, sub.Row(0))
	assert.Equal(t, 1, sub.Attrs[1].TimeIndex)

	nested := sub.Select([]int{1})
	assert.Equal(t, []float64{10, 11, 12}, nested.Row(0))
}

func TestWhere(t *testing.T) {
	ds := fixture(t)

	b := ds.Where(func(s Sample) bool { return s.Block() == "b" })
	require.Equal(t, 2, b.Len())
	assert.Equal(t, 1, b.Attrs[0].TimeIndex)
	assert.Equal(t, 3, b.Attrs[1].TimeIndex)

	none := ds.Where(func(Sample) bool { return false })
	assert.Equal(t, 0, none.Len())
	assert.Nil(t, none.Matrix(nil))
}

func TestConcat(t *testing.T) {
	ds := fixture(t)

	joined, err := ds.Select([]int{2}).Concat(ds.Select([]int{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 3, joined.Len())
	assert.Equal(t, []float64{20, 21, 22}, joined.Row(0))
	assert.Equal(t, []float64{10, 11, 12}, joined.Row(2))

	other := fixture(t)
	_, err = ds.Concat(other)
	assert.ErrorIs(t, err, ErrShape)
}

func TestMatrixRestrictsFeatures(t *testing.T) {
	ds := fixture(t).Select([]int{1, 2})

	m := ds.Matrix([]int{2, 0})
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{12, 10}, m.RawRowView(0))
	assert.Equal(t, []float64{22, 20}, m.RawRowView(1))

	full := ds.Matrix(nil)
	assert.Equal(t, []float64{10, 11, 12}, full.RawRowView(0))
}

func TestWithAttrs(t *testing.T) {
	ds := fixture(t)

	attrs := make([]Sample, ds.Len())
	for i := range attrs {
		attrs[i].Targets = "happy"
	}
	labeled, err := ds.WithAttrs(attrs)
	require.NoError(t, err)
	assert.Equal(t, []string{"happy", "happy", "happy", "happy"}, labeled.Targets())
	assert.Equal(t, "", ds.Attrs[0].Targets, "original attributes untouched")

	_, err = ds.WithAttrs(attrs[:1])
	assert.ErrorIs(t, err, ErrShape)
}
