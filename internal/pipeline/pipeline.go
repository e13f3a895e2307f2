// Package pipeline drives the decoding analysis: an HRF delay sweep over a
// worker PipeLine, a rerun of the best delay with a permutation null
// distribution, and the report artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/KyungWonPark/Decoding/internal/attr"
	"github.com/KyungWonPark/Decoding/internal/calc"
	"github.com/KyungWonPark/Decoding/internal/classify"
	"github.com/KyungWonPark/Decoding/internal/config"
	"github.com/KyungWonPark/Decoding/internal/dataset"
	"github.com/KyungWonPark/Decoding/internal/label"
	"github.com/KyungWonPark/Decoding/internal/logging"
	"github.com/KyungWonPark/Decoding/internal/report"
	"github.com/KyungWonPark/Decoding/internal/sensitivity"
	"github.com/KyungWonPark/Decoding/internal/subsample"
	"github.com/KyungWonPark/Decoding/internal/volume"
)

// ErrNoDelay is returned when every delay of the sweep failed.
var ErrNoDelay = errors.New("pipeline: no delay could be evaluated")

// Inputs names the files of one analysis.
type Inputs struct {
	AttrPath string
	BoldPath string
	MaskPath string
	OutDir   string
}

// Pipeline runs analyses with one configuration.
type Pipeline struct {
	cfg *config.Config
	log *slog.Logger
	pl  *calc.PipeLine
	agg *sensitivity.Aggregator
}

// New returns a Pipeline whose compute kernels run on cfg.Workers workers.
func New(cfg *config.Config, log *slog.Logger) *Pipeline {
	pl := calc.Init(0, cfg.Workers)
	return &Pipeline{cfg: cfg, log: log, pl: pl, agg: sensitivity.New(pl)}
}

// Final is the outcome of the best-delay rerun.
type Final struct {
	Delay    float64
	PerClass int
	CV       *classify.CVResult
	Null     *classify.NullResult
	Maps     *sensitivity.Maps
}

// Run performs the whole analysis and writes every artifact to in.OutDir.
func (p *Pipeline) Run(ctx context.Context, in Inputs) error {
	events, err := attr.Load(in.AttrPath)
	if err != nil {
		return err
	}
	ds, mapper, err := volume.Load(in.BoldPath, in.MaskPath, p.pl)
	if err != nil {
		return err
	}
	p.log.Info("loaded", "events", events.Len(), "volumes", ds.Len(), "voxels", mapper.NFeatures())

	delays, err := p.Sweep(ctx, ds, events)
	if err != nil {
		return err
	}
	if err := WriteSweep(in.OutDir, delays); err != nil {
		return err
	}

	best := report.Best(delays)
	if best < 0 {
		errs := []error{ErrNoDelay}
		for _, d := range delays {
			errs = append(errs, d.Err)
		}
		return errors.Join(errs...)
	}
	p.log.Info("best delay", "delay", delays[best].Delay, "accuracy", delays[best].Accuracy)

	final, err := p.Final(ds, events, delays[best].Delay)
	if err != nil {
		return fmt.Errorf("best delay %gms: %w", delays[best].Delay, err)
	}
	return WriteFinal(in.OutDir, mapper, final)
}

// Sweep evaluates every delay of the grid. Delays are spread over
// cfg.Workers goroutines; results keep grid order. A failing delay is
// logged and recorded, it does not stop the sweep.
func (p *Pipeline) Sweep(ctx context.Context, ds *dataset.Dataset, events attr.Table) ([]report.Delay, error) {
	grid := p.cfg.Delays()
	results := make([]report.Delay, len(grid))

	jobs := calc.Init(len(grid), p.cfg.Workers)
	for i := range grid {
		jobs.Push(i)
	}
	jobs.Close()

	var wg sync.WaitGroup
	wg.Add(jobs.GetNP())
	for w := 0; w < jobs.GetNP(); w++ {
		go func() {
			defer wg.Done()
			for {
				i, ok := jobs.Pop()
				if !ok {
					return
				}
				if err := ctx.Err(); err != nil {
					results[i] = report.Delay{Delay: grid[i], Err: err}
					continue
				}
				results[i] = p.evaluate(ctx, ds, events, grid[i])
			}
		}()
	}
	wg.Wait()

	pushed, popped := jobs.Counts()
	p.log.Debug("sweep done", "pushed", pushed, "popped", popped)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) evaluate(ctx context.Context, ds *dataset.Dataset, events attr.Table, delay float64) report.Delay {
	res := report.Delay{Delay: delay}

	balanced, err := p.prepare(ds, events, delay)
	if err != nil {
		p.log.Warn("delay failed", "delay", delay, "err", err)
		res.Err = err
		return res
	}

	cv, err := classify.CrossValidate(balanced, classify.NFold(balanced, classify.ByBlock), p.factory())
	if err != nil {
		p.log.Warn("delay failed", "delay", delay, "err", err)
		res.Err = err
		return res
	}
	for f, acc := range cv.Folds {
		p.log.Log(ctx, logging.LevelTrace, "fold", "delay", delay, "fold", f, "accuracy", acc)
	}

	clf := p.factory()()
	sens, err := clf.Analyze(balanced)
	if err != nil {
		p.log.Warn("delay failed", "delay", delay, "err", err)
		res.Err = err
		return res
	}
	p.log.Debug("sensitivities", "delay", delay, "voxels", len(clf.Selected()), "labels", clf.Labels())

	res.PerClass = subsample.PerClass(balanced)
	res.Accuracy = cv.Mean
	res.NonZero = sensitivity.NonZeroProportion(sensitivity.Sum(sens))
	p.log.Info("delay", "delay", delay, "samples", balanced.Len(), "accuracy", cv.Mean)
	return res
}

// prepare labels ds at delay and balances it.
func (p *Pipeline) prepare(ds *dataset.Dataset, events attr.Table, delay float64) (*dataset.Dataset, error) {
	labeled, err := label.Label(ds, events, p.cfg.SliceTimingReference, delay)
	if err != nil {
		return nil, err
	}
	balanced, err := subsample.Subsample(labeled, p.cfg.MaxSamples, p.cfg.MinSamples)
	if err != nil {
		return nil, err
	}
	if n := subsample.PerClass(balanced); n < p.cfg.MaxSamples {
		p.log.Debug("fewer samples than requested", "delay", delay, "per_class", n, "max_samples", p.cfg.MaxSamples)
	}
	return balanced, nil
}

// Final reruns delay with the null distribution and the sensitivity maps.
// Any failure is returned.
func (p *Pipeline) Final(ds *dataset.Dataset, events attr.Table, delay float64) (*Final, error) {
	balanced, err := p.prepare(ds, events, delay)
	if err != nil {
		return nil, err
	}

	folds := classify.NFold(balanced, classify.ByBlock)
	cv, err := classify.CrossValidate(balanced, folds, p.factory())
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(p.cfg.Seed))
	null, err := classify.NullDistribution(balanced, folds, p.factory(), p.cfg.Permutations, cv.Mean, rng)
	if err != nil {
		return nil, err
	}
	p.log.Info("null distribution", "permutations", p.cfg.Permutations, "accuracy", cv.Mean, "p", null.P)

	sens, err := p.factory()().Analyze(balanced)
	if err != nil {
		return nil, err
	}
	maps, err := p.agg.Maps(sens, p.cfg.MapSignificance)
	if err != nil {
		return nil, err
	}

	return &Final{
		Delay:    delay,
		PerClass: subsample.PerClass(balanced),
		CV:       cv,
		Null:     null,
		Maps:     maps,
	}, nil
}

func (p *Pipeline) factory() classify.Factory {
	params := classify.Params{
		SVM: classify.SVMParams{
			C:       p.cfg.SVMC,
			MaxIter: p.cfg.SVMMaxIter,
			Epsilon: p.cfg.SVMEpsilon,
			Seed:    p.cfg.Seed,
		},
		Selection: p.cfg.AnovaSelection,
	}
	return func() *classify.Classifier { return classify.New(params, p.pl) }
}
