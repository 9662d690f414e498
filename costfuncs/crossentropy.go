package costfuncs

import (
	"math"
)

// outputs are clipped to [epsilon, 1 - epsilon] before taking logarithms
const epsilon float64 = 1e-7

func clip(v float64) float64 {
	return math.Max(epsilon, math.Min(1-epsilon, v))
}

// ****************************************
// Categorical cross-entropy
// ****************************************

type crossEntropy int8

// CrossEntropy returns the categorical cross-entropy cost function. The outputs are expected to be
// a probability distribution, such as the values of a Softmax Node, and the targets one-hot.
func CrossEntropy() crossEntropy {
	return crossEntropy(0)
}

func (c crossEntropy) TypeString() string {
	return "categorical_crossentropy"
}

func (c crossEntropy) Cost(outs, targets []float64) float64 {
	var sum float64
	for i := range outs {
		sum -= targets[i] * math.Log(clip(outs[i]))
	}

	return sum
}

func (c crossEntropy) Derivs(outs, targets []float64) []float64 {
	ds := make([]float64, len(outs))
	for i := range outs {
		if o := outs[i]; o > epsilon && o < 1-epsilon {
			ds[i] = -targets[i] / o
		}
	}

	return ds
}

// ****************************************
// Binary cross-entropy
// ****************************************

type binaryCrossEntropy int8

// BinaryCrossEntropy returns the binary cross-entropy cost function, averaged over the outputs.
// Each output is taken as an independent probability, such as the values of a Logistic Node. This
// is the cost used for ordinal targets.
func BinaryCrossEntropy() binaryCrossEntropy {
	return binaryCrossEntropy(0)
}

func (b binaryCrossEntropy) TypeString() string {
	return "binary_crossentropy"
}

func (b binaryCrossEntropy) Cost(outs, targets []float64) float64 {
	var sum float64
	for i := range outs {
		o := clip(outs[i])
		sum -= targets[i]*math.Log(o) + (1-targets[i])*math.Log(1-o)
	}

	return sum / float64(len(outs))
}

func (b binaryCrossEntropy) Derivs(outs, targets []float64) []float64 {
	ds := make([]float64, len(outs))
	for i := range outs {
		o := outs[i]
		if o <= epsilon || o >= 1-epsilon {
			continue
		}

		ds[i] = (o - targets[i]) / (o * (1 - o)) / float64(len(outs))
	}

	return ds
}
