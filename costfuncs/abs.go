package costfuncs

import (
	"math"
)

type abs int8

// Abs returns the mean absolute error cost function, which implements xirt.CostFunction.
func Abs() abs {
	return abs(0)
}

// MAE is a proxy for Abs
func MAE() abs {
	return Abs()
}

// L1 is a proxy for Abs
func L1() abs {
	return Abs()
}

func (a abs) TypeString() string {
	return "mae"
}

func (a abs) Cost(outs, targets []float64) float64 {
	var sum float64
	for i := range outs {
		sum += math.Abs(outs[i] - targets[i])
	}

	return sum / float64(len(outs))
}

func (a abs) Derivs(outs, targets []float64) []float64 {
	ds := make([]float64, len(outs))
	for i := range outs {
		if d := outs[i] - targets[i]; d != 0 {
			ds[i] = math.Copysign(1, d) / float64(len(outs))
		}
	}

	return ds
}
