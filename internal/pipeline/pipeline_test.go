package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KyungWonPark/Decoding/internal/attr"
	"github.com/KyungWonPark/Decoding/internal/config"
	"github.com/KyungWonPark/Decoding/internal/dataset"
	"github.com/KyungWonPark/Decoding/internal/logging"
	"github.com/KyungWonPark/Decoding/internal/report"
	"github.com/KyungWonPark/Decoding/internal/subsample"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	eventSpacing = 4000.0
	trueDelay    = 2000.0
	nEvents      = 18
	nVolumes     = 40
	nVoxels      = 6
)

var cycle = []string{"happy", "sad", "neutral"}

// design alternates stimulus and fixation events every 4s. Even events
// show an emotion from cycle, odd ones are fixation.
func design() attr.Table {
	events := make([]attr.Event, nEvents)
	for k := range events {
		onset := eventSpacing * float64(k)
		emotion := "fixation"
		if k%2 == 0 {
			emotion = cycle[(k/2)%len(cycle)]
		}
		events[k] = attr.Event{
			Onset:    onset,
			RawOnset: onset,
			Block:    fmt.Sprintf("%d", k),
			Emotion:  emotion,
		}
	}
	return attr.Table{Events: events}
}

// scan acquires a volume every 2s. A volume carries the emotion of the
// event that started trueDelay before it on voxel k; fixation is noise.
func scan(t *testing.T, events attr.Table) *dataset.Dataset {
	t.Helper()

	rng := rand.New(rand.NewSource(11))
	data := make([]float64, nVolumes*nVoxels)
	attrs := make([]dataset.Sample, nVolumes)
	for v := 0; v < nVolumes; v++ {
		row := data[v*nVoxels : (v+1)*nVoxels]
		for j := range row {
			row[j] = rng.NormFloat64() * 0.1
		}

		ms := 2000*float64(v) + 1000 - trueDelay
		if k := int(ms / eventSpacing); ms >= 0 && k < nEvents {
			for c, emo := range cycle {
				if events.Events[k].Emotion == emo {
					row[c] += 5
				}
			}
		}
		attrs[v] = dataset.Sample{TimeIndex: v, TimeCoord: 2 * float64(v)}
	}

	ds, err := dataset.New(mat64.NewDense(nVolumes, nVoxels, data), attrs)
	require.NoError(t, err)
	return ds
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Start, cfg.Limit, cfg.Step = 0, 3000, 1000
	cfg.MaxSamples = 3
	cfg.AnovaSelection = 0.5
	cfg.SVMC = 1
	cfg.SVMEpsilon = 0.01
	cfg.Permutations = 4
	cfg.Workers = 2
	return cfg
}

func TestSweepFindsTrueDelay(t *testing.T) {
	events := design()
	ds := scan(t, events)
	p := New(testConfig(), logging.Discard())

	delays, err := p.Sweep(context.Background(), ds, events)
	require.NoError(t, err)
	require.Len(t, delays, 3)

	for i, d := range delays {
		require.NoError(t, d.Err, "delay %g", d.Delay)
		assert.Equal(t, float64(1000*i), d.Delay)
		assert.Equal(t, 3, d.PerClass)
		assert.Greater(t, d.NonZero, 0.0)
	}
	assert.Equal(t, 1.0, delays[2].Accuracy)
	assert.Less(t, delays[0].Accuracy, 1.0)
	assert.Equal(t, 2, report.Best(delays))
}

func TestSweepRecordsFailedDelays(t *testing.T) {
	events := design()
	ds := scan(t, events)
	cfg := testConfig()
	cfg.Start, cfg.Step, cfg.Limit = 2000, 58000, 60001
	p := New(cfg, logging.Discard())

	delays, err := p.Sweep(context.Background(), ds, events)
	require.NoError(t, err)
	require.Len(t, delays, 2)

	assert.NoError(t, delays[0].Err)
	assert.ErrorIs(t, delays[1].Err, subsample.ErrDegenerateClass)
	assert.Equal(t, "nan nan nan", report.TimeSeriesLines(delays)[1])
}

func TestSweepCancelled(t *testing.T) {
	events := design()
	ds := scan(t, events)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), logging.Discard()).Sweep(ctx, ds, events)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFinal(t *testing.T) {
	events := design()
	ds := scan(t, events)
	p := New(testConfig(), logging.Discard())

	final, err := p.Final(ds, events, trueDelay)
	require.NoError(t, err)

	assert.Equal(t, trueDelay, final.Delay)
	assert.Equal(t, 3, final.PerClass)
	assert.Equal(t, 1.0, final.CV.Mean)
	assert.Len(t, final.Null.Samples, 4)
	assert.Greater(t, final.Null.P, 0.0)
	assert.LessOrEqual(t, final.Null.P, 1.0)

	for _, m := range [][]float64{final.Maps.All, final.Maps.EmoVsNeu, final.Maps.HapVsSad} {
		require.Len(t, m, nVoxels)
		peak := 0.0
		for _, w := range m {
			assert.GreaterOrEqual(t, w, 0.0)
			if w > peak {
				peak = w
			}
		}
		assert.InDelta(t, 1.0, peak, 1e-12)
	}
}

func TestFinalFailsLoudly(t *testing.T) {
	events := design()
	ds := scan(t, events)

	_, err := New(testConfig(), logging.Discard()).Final(ds, events, 60000)
	assert.ErrorIs(t, err, subsample.ErrDegenerateClass)
}

type recordedMaps map[string][]float64

func (r recordedMaps) WriteMap(path string, weights []float64) error {
	r[filepath.Base(path)] = weights
	return os.WriteFile(path, nil, 0o644)
}

func TestWriteArtifacts(t *testing.T) {
	events := design()
	ds := scan(t, events)
	p := New(testConfig(), logging.Discard())
	dir := filepath.Join(t.TempDir(), "out")

	delays, err := p.Sweep(context.Background(), ds, events)
	require.NoError(t, err)
	require.NoError(t, WriteSweep(dir, delays))

	final, err := p.Final(ds, events, trueDelay)
	require.NoError(t, err)
	maps := recordedMaps{}
	require.NoError(t, WriteFinal(dir, maps, final))

	for _, name := range []string{
		"result-time-series.txt", "result-time-series.svg", "result-time-series.npy",
		"result-time-series.csv", "result-dist.svg",
		"conf-matrix.txt", "conf-matrix.svg",
		"null-dist.txt", "null-dist.svg", "null-dist.npy",
		"weights-dist.svg",
		"all-weights-nn.nii.gz", "emo-vs-neu-weights-nn.nii.gz", "hap_vs_sad-weights-nn.nii.gz",
		"all-weights-nn.npy",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "result-time-series.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "3 1.0 "), lines[2])

	data, err = os.ReadFile(filepath.Join(dir, "null-dist.txt"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)

	data, err = os.ReadFile(filepath.Join(dir, "conf-matrix.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# of sets")

	assert.Equal(t, final.Maps.HapVsSad, maps["hap_vs_sad-weights-nn.nii.gz"])
}
