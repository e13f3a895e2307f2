package calc

import (
	"fmt"
)

// Acc does accumulation: output[i] += input[i]
func (p *PipeLine) Acc(input []float64, output []float64) error {
	if len(input) != len(output) {
		return fmt.Errorf("calc: Acc: input length %d when output length %d", len(input), len(output))
	}

	ranges := p.chunks(len(input))
	p.Each(len(ranges), func(c int) {
		for i := ranges[c][0]; i < ranges[c][1]; i++ {
			output[i] += input[i]
		}
	})

	return nil
}
