// relus.go contains all activation functions that are derivative of relu:
// * ReLU
// * Leaky ReLU
// * ELU
// * Softplus (because it's similar)
package operators

import (
	"math"
)

// ****************************************
// ReLU
// ****************************************

// ReLU returns the standard rectified linear unit, which implements xirt.Operator.
func ReLU() *activation {
	return &activation{
		name: "relu",
		f: func(in float64) float64 {
			return math.Max(in, 0)
		},
		df: func(in, out float64) float64 {
			if in > 0 {
				return 1
			}
			return 0
		},
	}
}

// ****************************************
// Leaky ReLU
// ****************************************

// LeakyReLU returns a standard 'leaky ReLU', where the leaky factor is given by alpha.
func LeakyReLU(alpha float64) *activation {
	return &activation{
		name: "leaky_relu",
		f: func(in float64) float64 {
			if in < 0 {
				return alpha * in
			}
			return in
		},
		df: func(in, out float64) float64 {
			if in < 0 {
				return alpha
			}
			return 1
		},
	}
}

// ****************************************
// ELU
// ****************************************

// ELU returns the exponential linear unit, with the saturation value for negative inputs given by
// alpha. Keras uses alpha = 1.
func ELU(alpha float64) *activation {
	return &activation{
		name: "elu",
		f: func(in float64) float64 {
			if in < 0 {
				return alpha * (math.Exp(in) - 1)
			}
			return in
		},
		df: func(in, out float64) float64 {
			if in < 0 {
				return out + alpha
			}
			return 1
		},
	}
}

// ****************************************
// Softplus
// ****************************************

// Softplus returns the smooth approximation of ReLU, ln(1 + e^x).
func Softplus() *activation {
	return &activation{
		name: "softplus",
		f: func(in float64) float64 {
			// avoids overflow of math.Exp for large inputs
			if in > 30 {
				return in
			}
			return math.Log1p(math.Exp(in))
		},
		df: func(in, out float64) float64 {
			return 0.5 + 0.5*math.Tanh(0.5*in)
		},
	}
}
