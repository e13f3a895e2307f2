package io

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "0.5"},
		{1, "1.0"},
		{0, "0.0"},
		{1.0 / 3, "0.333333333333"},
		{1e-05, "1e-05"},
		{1e16, "1e+16"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}
}

func TestF64SliceToText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "null-dist.txt")
	require.NoError(t, F64SliceToText(path, []float64{0.25, 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.25\n1.0\n", string(data))
}

func TestMat64toCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	m := mat64.NewDense(3, 2, []float64{1, 2.5, 3, 4, 5, 6})
	require.NoError(t, Mat64toCSV(path, m, []string{"a", "b"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2.5\n3,4\n5,6\n", string(data))

	assert.Error(t, Mat64toCSV(path, m, []string{"a"}))
}

func TestNpyMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.npy")
	m := mat64.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, Mat64toNpy(path, m))

	got, err := NpytoMat64(path)
	require.NoError(t, err)
	assert.True(t, mat64.Equal(m, got))
}

func TestNpySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.npy")
	require.NoError(t, F64SliceToNpy(path, []float64{0.5, 0.25, 0}))

	got, err := NpytoMat64(path)
	require.NoError(t, err)
	r, c := got.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{0.5, 0.25, 0}, got.RawRowView(0))
}
