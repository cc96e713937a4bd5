// Package stats holds the numeric summaries computed by transform modules.
package stats

import "errors"

// ErrEmptyInput is returned when a summary is requested over zero samples.
var ErrEmptyInput = errors.New("mean of empty input is undefined")

// Mean returns the arithmetic mean of xs using a running (Welford) update,
// which stays accurate for long vectors with a large common offset.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}

	var mean float64
	for i, x := range xs {
		mean += (x - mean) / float64(i+1)
	}
	return mean, nil
}
