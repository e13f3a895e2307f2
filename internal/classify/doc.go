// Package classify trains and validates the emotion decoder: one-way ANOVA
// voxel selection feeding a one-vs-one linear SVM, n-fold cross-validation
// over acquisition blocks, confusion matrices and a Monte-Carlo null
// distribution of cross-validated accuracy.
package classify
