package calc

import (
	"fmt"
)

// Threshold does thresholding: values strictly below thr become sub
func (p *PipeLine) Threshold(input []float64, output []float64, thr float64, sub float64) error {
	if len(input) != len(output) {
		return fmt.Errorf("calc: Threshold: input length %d when output length %d", len(input), len(output))
	}

	ranges := p.chunks(len(input))
	p.Each(len(ranges), func(c int) {
		for i := ranges[c][0]; i < ranges[c][1]; i++ {
			value := input[i]
			if value < thr {
				value = sub
			}

			output[i] = value
		}
	})

	return nil
}
