// Package statistics computes probability-weighted sample-set statistics:
// the mean, the standard deviation and the gradient of mean plus a
// multiple of the standard deviation.
//
// Probabilities are literal weights. They must each be positive but are not
// required to sum to one.
package statistics
