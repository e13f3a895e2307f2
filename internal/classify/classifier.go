package classify

import (
	"fmt"

	"github.com/KyungWonPark/Decoding/internal/calc"
	"github.com/KyungWonPark/Decoding/internal/dataset"
)

// Params configures a Classifier.
type Params struct {
	SVM SVMParams
	// Selection is the fraction of voxels kept by ANOVA F-score.
	Selection float64
}

// Classifier selects the most class-discriminative voxels by one-way ANOVA
// on its training data, then fits a one-vs-one linear SVM on them.
type Classifier struct {
	params    Params
	pl        *calc.PipeLine
	nFeatures int
	features  []int
	model     *pairwise
}

// New returns an untrained classifier. pl runs the per-voxel F-scores.
func New(params Params, pl *calc.PipeLine) *Classifier {
	return &Classifier{params: params, pl: pl}
}

// Train fits the classifier on the Targets of ds.
func (c *Classifier) Train(ds *dataset.Dataset) error {
	if ds.Len() == 0 {
		return ErrNoData
	}

	targets := ds.Targets()
	labels := sortedLabels(targets)
	if len(labels) < 2 {
		return fmt.Errorf("%w: got %v", ErrSingleClass, labels)
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	groups := make([]int, len(targets))
	for i, t := range targets {
		groups[i] = index[t]
	}

	full := ds.Matrix(nil)
	scores := make([]float64, ds.NFeatures())
	if err := c.pl.FScores(full, groups, len(labels), scores); err != nil {
		return err
	}
	features := selectUpperTail(scores, c.params.Selection)

	model, err := trainPairwise(ds.Matrix(features), targets, c.params.SVM)
	if err != nil {
		return err
	}

	c.nFeatures = ds.NFeatures()
	c.features = features
	c.model = model
	return nil
}

// Predict returns one label per sample of ds.
func (c *Classifier) Predict(ds *dataset.Dataset) ([]string, error) {
	if c.model == nil {
		return nil, ErrNotTrained
	}
	if ds.Len() == 0 {
		return nil, ErrNoData
	}
	if ds.NFeatures() != c.nFeatures {
		return nil, fmt.Errorf("%w: trained on %d voxels, got %d", ErrFeatureMismatch, c.nFeatures, ds.NFeatures())
	}

	x := make([]float64, len(c.features))
	predictions := make([]string, ds.Len())
	for i := range predictions {
		row := ds.Row(i)
		for j, f := range c.features {
			x[j] = row[f]
		}
		predictions[i] = c.model.predict(x)
	}
	return predictions, nil
}

// Selected returns the voxel indices kept by the ANOVA step.
func (c *Classifier) Selected() []int {
	return c.features
}

// Labels returns the sorted class labels seen in training.
func (c *Classifier) Labels() []string {
	if c.model == nil {
		return nil
	}
	return c.model.labels
}

// Sensitivities returns one weight vector per class pair, mapped back to
// the full voxel space with zeros for unselected voxels.
func (c *Classifier) Sensitivities() ([]Sensitivity, error) {
	if c.model == nil {
		return nil, ErrNotTrained
	}

	sens := make([]Sensitivity, len(c.model.pairs))
	for k, p := range c.model.pairs {
		weights := make([]float64, c.nFeatures)
		for j, f := range c.features {
			weights[f] = c.model.models[k].W[j]
		}
		sens[k] = Sensitivity{
			A:       c.model.labels[p[0]],
			B:       c.model.labels[p[1]],
			Weights: weights,
		}
	}
	return sens, nil
}

// Analyze trains on ds and returns the pairwise sensitivities.
func (c *Classifier) Analyze(ds *dataset.Dataset) ([]Sensitivity, error) {
	if err := c.Train(ds); err != nil {
		return nil, err
	}
	return c.Sensitivities()
}
