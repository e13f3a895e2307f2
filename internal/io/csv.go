package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/gonum/matrix/mat64"
)

// Mat64toCSV saves Mat64 as a csv file, optionally preceded by a header row
func Mat64toCSV(path string, matrix *mat64.Dense, header []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("io: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("io: close %s: %w", path, cerr)
		}
	}()

	rows, cols := matrix.Dims()
	if header != nil && len(header) != cols {
		return fmt.Errorf("io: %s: header has %d columns, matrix %d", path, len(header), cols)
	}

	records := make([][]string, rows)
	order := make(chan int, rows)
	var wg sync.WaitGroup
	wg.Add(rows)
	for i := 0; i < workers(rows); i++ {
		go formatRow(matrix, records, order, &wg)
	}
	for row := 0; row < rows; row++ {
		order <- row
	}
	wg.Wait()
	close(order)

	w := csv.NewWriter(f)
	if header != nil {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("io: write %s: %w", path, err)
		}
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("io: write %s: %w", path, err)
	}

	return nil
}

func formatRow(matrix *mat64.Dense, records [][]string, order <-chan int, wg *sync.WaitGroup) {
	_, cols := matrix.Dims()

	for {
		row, ok := <-order
		if !ok {
			break
		}

		record := make([]string, cols)
		for i := 0; i < cols; i++ {
			record[i] = strconv.FormatFloat(matrix.At(row, i), 'g', -1, 64)
		}
		records[row] = record

		wg.Done()
	}
}
