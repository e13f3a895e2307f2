package io

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
)

// Mat64toNpy writes mat64 matrix to Python numpy npy binary file
func Mat64toNpy(path string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()
	data := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		data = append(data, matrix.RawRowView(r)...)
	}

	return writeNpy(path, []int{rows, cols}, data)
}

// F64SliceToNpy writes float64 slice to a 1-d npy file
func F64SliceToNpy(path string, slice []float64) error {
	return writeNpy(path, []int{len(slice)}, slice)
}

func writeNpy(path string, shape []int, data []float64) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("io: open %s: %w", path, err)
	}
	w.Shape = shape
	w.Version = 2
	if err := w.WriteFloat64(data); err != nil {
		return fmt.Errorf("io: write %s: %w", path, err)
	}

	return nil
}

// NpytoMat64 reads Python numpy npy binary file as mat64 matrix.
// 1-d arrays come back as a single row.
func NpytoMat64(path string) (*mat64.Dense, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("io: open %s: %w", path, err)
	}

	rows, cols := 1, 0
	switch len(r.Shape) {
	case 1:
		cols = r.Shape[0]
	case 2:
		rows, cols = r.Shape[0], r.Shape[1]
	default:
		return nil, fmt.Errorf("io: %s: unsupported shape %v", path, r.Shape)
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("io: %s: empty array", path)
	}

	data, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("io: read %s: %w", path, err)
	}

	return mat64.NewDense(rows, cols, data), nil
}
