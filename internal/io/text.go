package io

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// WriteLines writes every line to path, newline terminated
func WriteLines(path string, lines []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("io: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("io: close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("io: write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("io: write %s: %w", path, err)
	}

	return nil
}

// WriteText writes s to path as is
func WriteText(path string, s string) error {
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("io: write %s: %w", path, err)
	}
	return nil
}

// FormatFloat renders v with 12 significant digits, keeping a decimal
// point on integral values: 1 is "1.0", NaN is "nan".
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'g', 12, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// F64SliceToText writes one value per line
func F64SliceToText(path string, slice []float64) error {
	lines := make([]string, len(slice))
	for i, v := range slice {
		lines[i] = FormatFloat(v)
	}
	return WriteLines(path, lines)
}

func workers(jobs int) int {
	n := runtime.NumCPU()
	if jobs < n {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}
