// Package metrics provides the evaluation metrics that can be reported for each output of a
// network, alongside its loss.
package metrics

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Func computes a metric for a single sample, given the outputs for one task and their targets. The
// values for a dataset are the mean over all samples.
type Func func(outs, targets []float64) float64

// MSE is the mean squared error
func MSE(outs, targets []float64) float64 {
	var sum float64
	for i := range outs {
		d := outs[i] - targets[i]
		sum += d * d
	}
	return sum / float64(len(outs))
}

// MAE is the mean absolute error
func MAE(outs, targets []float64) float64 {
	var sum float64
	for i := range outs {
		sum += math.Abs(outs[i] - targets[i])
	}
	return sum / float64(len(outs))
}

// BinaryAccuracy is the fraction of outputs that are on the same side of 0.5 as their targets.
func BinaryAccuracy(outs, targets []float64) float64 {
	var correct float64
	for i := range outs {
		if (outs[i] > 0.5) == (targets[i] > 0.5) {
			correct++
		}
	}
	return correct / float64(len(outs))
}

// CategoricalAccuracy is 1 if the largest output is at the same index as the largest target, else 0.
func CategoricalAccuracy(outs, targets []float64) float64 {
	if floats.MaxIdx(outs) == floats.MaxIdx(targets) {
		return 1
	}
	return 0
}

// Accuracy uses CategoricalAccuracy for tasks with more than one output, and BinaryAccuracy
// otherwise.
func Accuracy(outs, targets []float64) float64 {
	if len(outs) > 1 {
		return CategoricalAccuracy(outs, targets)
	}
	return BinaryAccuracy(outs, targets)
}

var byName = map[string]Func{
	"mse":                  MSE,
	"mean_squared_error":   MSE,
	"mae":                  MAE,
	"mean_absolute_error":  MAE,
	"accuracy":             Accuracy,
	"acc":                  Accuracy,
	"binary_accuracy":      BinaryAccuracy,
	"categorical_accuracy": CategoricalAccuracy,
}

// Get returns the metric with the given Keras-style name.
func Get(name string) (Func, error) {
	f, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("Unknown metric %q", name)
	}

	return f, nil
}
