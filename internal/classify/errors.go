package classify

import "errors"

var (
	// ErrNoData is returned when training or testing on an empty dataset.
	ErrNoData = errors.New("classify: empty dataset")

	// ErrSingleClass is returned when training data holds fewer than two classes.
	ErrSingleClass = errors.New("classify: need at least two classes")

	// ErrNotTrained is returned by Predict before Train succeeded.
	ErrNotTrained = errors.New("classify: classifier not trained")

	// ErrFeatureMismatch is returned when test samples have a different
	// voxel count than the training samples.
	ErrFeatureMismatch = errors.New("classify: feature count mismatch")
)
