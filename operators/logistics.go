package operators

import (
	"math"
)

// ****************************************
// Identity
// ****************************************

// Identity returns an operator that returns its inputs. It is the "linear" activation.
func Identity() *activation {
	return &activation{
		name: "linear",
		f:    func(in float64) float64 { return in },
		df:   func(in, out float64) float64 { return 1 },
	}
}

// ****************************************
// Logistic
// ****************************************

// Logistic returns an elementwise application of the logistic (or sigmoid) function that
// implements xirt.Operator.
func Logistic() *activation {
	return &activation{
		name: "sigmoid",
		f: func(in float64) float64 {
			// the logistic function can be rephrased as:
			return 0.5 + 0.5*math.Tanh(0.5*in)
		},
		df: func(in, out float64) float64 {
			return out * (1 - out)
		},
	}
}

// ****************************************
// Hard sigmoid
// ****************************************

// HardSigmoid returns the piecewise linear approximation of Logistic used by Keras:
// clip(0.2x + 0.5, 0, 1).
func HardSigmoid() *activation {
	return &activation{
		name: "hard_sigmoid",
		f: func(in float64) float64 {
			return math.Max(0, math.Min(1, 0.2*in+0.5))
		},
		df: func(in, out float64) float64 {
			if in < -2.5 || in > 2.5 {
				return 0
			}
			return 0.2
		},
	}
}

// ****************************************
// Tanh
// ****************************************

// Tanh returns an Operator that performs an element-wise application of the tanh() function.
func Tanh() *activation {
	return &activation{
		name: "tanh",
		f:    math.Tanh,
		df: func(in, out float64) float64 {
			// it's cheaper to multiply it by itself than to use math.Pow()
			return 1 - out*out
		},
	}
}

// ****************************************
// Softsign
// ****************************************

// Softsign (not to be confused with softplus) returns the Softsign activation function. It is
// similar in shape to Tanh and Logistic.
func Softsign() *activation {
	return &activation{
		name: "softsign",
		f: func(in float64) float64 {
			return in / (math.Abs(in) + 1)
		},
		df: func(in, out float64) float64 {
			d := math.Abs(in) + 1
			return 1 / (d * d)
		},
	}
}
