package calc

import (
	"sort"
	"sync"
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopClose(t *testing.T) {
	pl := Init(4, 3)
	assert.Equal(t, 3, pl.GetNP())

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for w := 0; w < pl.GetNP(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, ok := pl.Pop()
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, job)
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < 20; i++ {
		pl.Push(i)
	}
	pl.Close()
	pl.Close()
	wg.Wait()

	sort.Ints(got)
	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}

	pushed, popped := pl.Counts()
	assert.Equal(t, int64(20), pushed)
	assert.Equal(t, int64(20), popped)
}

func TestInitDefaultsToCPUCount(t *testing.T) {
	pl := Init(0, 0)
	assert.GreaterOrEqual(t, pl.GetNP(), 1)
}

func TestEachVisitsEveryIndexOnce(t *testing.T) {
	pl := Init(0, 4)
	hits := make([]int, 101)

	pl.Each(len(hits), func(i int) { hits[i]++ })

	for i, h := range hits {
		assert.Equal(t, 1, h, "index %d", i)
	}

	pl.Each(0, func(int) { t.Fatal("must not be called") })
}

func TestAcc(t *testing.T) {
	pl := Init(0, 3)
	out := []float64{1, 1, 1, 1, 1}

	require.NoError(t, pl.Acc([]float64{1, 2, 3, 4, 5}, out))
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, out)

	assert.Error(t, pl.Acc([]float64{1}, out))
}

func TestThreshold(t *testing.T) {
	pl := Init(0, 2)
	in := []float64{0.1, 0.5, 0.49, 1, 0.5}
	out := make([]float64, len(in))

	require.NoError(t, pl.Threshold(in, out, 0.5, 0))
	assert.Equal(t, []float64{0, 0.5, 0, 1, 0.5}, out, "values equal to thr survive")

	require.NoError(t, pl.Threshold(in, in, 0.5, -1))
	assert.Equal(t, []float64{-1, 0.5, -1, 1, 0.5}, in, "in place")

	assert.Error(t, pl.Threshold(in, out[:1], 0, 0))
}

func TestFScores(t *testing.T) {
	pl := Init(0, 2)
	samples := mat64.NewDense(4, 3, []float64{
		1, 7, 5,
		2, 7, 1,
		3, 7, 5,
		4, 7, 1,
	})
	scores := make([]float64, 3)

	require.NoError(t, pl.FScores(samples, []int{0, 0, 1, 1}, 2, scores))

	assert.InDelta(t, 8.0, scores[0], 1e-12)
	assert.Equal(t, 0.0, scores[1], "constant column")
	assert.Equal(t, 0.0, scores[2], "no between-group difference")
}

func TestFScoresBadInput(t *testing.T) {
	pl := Init(0, 2)
	samples := mat64.NewDense(2, 2, nil)

	assert.Error(t, pl.FScores(samples, []int{0}, 2, make([]float64, 2)))
	assert.Error(t, pl.FScores(samples, []int{0, 1}, 2, make([]float64, 1)))
	assert.Error(t, pl.FScores(samples, []int{0, 2}, 2, make([]float64, 2)))
}
