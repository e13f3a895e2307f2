package classify

import (
	"fmt"
	"math/rand"

	"github.com/KyungWonPark/Decoding/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Fold is one train/test split, as sample indices.
type Fold struct {
	Train []int
	Test  []int
}

// NFold holds out every distinct value of key once, in order of first
// appearance.
func NFold(ds *dataset.Dataset, key func(dataset.Sample) string) []Fold {
	var values []string
	seen := make(map[string]bool)
	for _, s := range ds.Attrs {
		v := key(s)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}

	folds := make([]Fold, len(values))
	for f, v := range values {
		for i, s := range ds.Attrs {
			if key(s) == v {
				folds[f].Test = append(folds[f].Test, i)
			} else {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
	}
	return folds
}

// ByBlock is the NFold key for leave-one-block-out validation.
func ByBlock(s dataset.Sample) string { return s.Block() }

// Factory builds a fresh untrained classifier.
type Factory func() *Classifier

// CVResult is the outcome of a cross-validation.
type CVResult struct {
	// Folds holds the accuracy of every fold.
	Folds []float64
	// Mean is the mean fold accuracy.
	Mean float64
	// Confusion accumulates predictions over every fold.
	Confusion *ConfusionMatrix
}

// CrossValidate trains a fresh classifier per fold and scores it on the
// held-out samples with accuracy mean(prediction == target).
func CrossValidate(ds *dataset.Dataset, folds []Fold, newClassifier Factory) (*CVResult, error) {
	if len(folds) == 0 {
		return nil, fmt.Errorf("%w: no folds", ErrNoData)
	}

	res := &CVResult{Confusion: NewConfusionMatrix(sortedLabels(ds.Targets()))}
	for f, fold := range folds {
		test := ds.Select(fold.Test)
		predictions, err := trainAndPredict(ds.Select(fold.Train), test, newClassifier)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}

		targets := test.Targets()
		res.Folds = append(res.Folds, accuracy(predictions, targets))
		res.Confusion.Add(targets, predictions)
	}
	res.Mean = stat.Mean(res.Folds, nil)
	return res, nil
}

func trainAndPredict(train, test *dataset.Dataset, newClassifier Factory) ([]string, error) {
	clf := newClassifier()
	if err := clf.Train(train); err != nil {
		return nil, err
	}
	return clf.Predict(test)
}

func accuracy(predictions, targets []string) float64 {
	if len(targets) == 0 {
		return 0
	}
	hits := 0
	for i := range targets {
		if predictions[i] == targets[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(targets))
}

// NullResult is a Monte-Carlo estimate of the chance accuracy distribution.
type NullResult struct {
	// Samples holds the mean fold accuracy of every permutation.
	Samples []float64
	// Observed is the unpermuted mean fold accuracy.
	Observed float64
	// P is the right-tail probability of Observed under the null.
	P float64
}

// NullDistribution repeats the cross-validation permutations times, each
// time shuffling the training targets of every fold while keeping test
// targets intact.
func NullDistribution(ds *dataset.Dataset, folds []Fold, newClassifier Factory, permutations int, observed float64, rng *rand.Rand) (*NullResult, error) {
	res := &NullResult{Observed: observed}

	for rep := 0; rep < permutations; rep++ {
		accs := make([]float64, 0, len(folds))
		for f, fold := range folds {
			train := permuteTargets(ds.Select(fold.Train), rng)
			test := ds.Select(fold.Test)

			predictions, err := trainAndPredict(train, test, newClassifier)
			if err != nil {
				return nil, fmt.Errorf("permutation %d fold %d: %w", rep, f, err)
			}
			accs = append(accs, accuracy(predictions, test.Targets()))
		}
		res.Samples = append(res.Samples, stat.Mean(accs, nil))
	}

	exceed := 0
	for _, s := range res.Samples {
		if s >= observed {
			exceed++
		}
	}
	res.P = float64(1+exceed) / float64(1+len(res.Samples))
	return res, nil
}

// permuteTargets returns ds with its Targets shuffled among its samples.
func permuteTargets(ds *dataset.Dataset, rng *rand.Rand) *dataset.Dataset {
	attrs := append([]dataset.Sample(nil), ds.Attrs...)
	perm := rng.Perm(len(attrs))
	for i, j := range perm {
		attrs[i].Targets = ds.Attrs[j].Targets
	}

	out, _ := ds.WithAttrs(attrs)
	return out
}
