package initializers

import (
	"math"

	"github.com/xirtnet/xirt"
)

type varianceScaling struct {
	// either: "in", "out", "avg"
	mode   string
	factor float64

	// either: "truncated", "normal", "uniform"
	dist string
}

const defaultVarianceMode string = "avg"

// the standard deviation of a standard normal distribution truncated at 2 standard deviations
const truncatedSD float64 = 0.87962566103423978

// VarianceScaling returns the variance scaling initializer, which has 3 modes and a user-defined
// scaling factor. The three modes can be set by In, Out, and Avg. It defaults to Avg, with values
// drawn from a truncated normal distribution.
//
// The number of inputs and outputs are given by the Operator of the Node if it implements
// xirt.Fanner, otherwise by the sizes of the Node and its inputs.
func VarianceScaling() *varianceScaling {
	return &varianceScaling{defaultVarianceMode, defaultValue["varscl-factor"], "truncated"}
}

// Factor sets the scaling factor to be used for the Initializer. The default factor can be set by
// SetDefault("varscl-factor")
func (v *varianceScaling) Factor(f float64) *varianceScaling {
	v.factor = f
	return v
}

// In sets the scaling to be based on the number of input values to the Node.
func (v *varianceScaling) In() *varianceScaling {
	v.mode = "in"
	return v
}

// Out sets the scaling to be based on the number of output values to the Node.
func (v *varianceScaling) Out() *varianceScaling {
	v.mode = "out"
	return v
}

// Avg sets the scaling to be based on the average of the numbers of input and output values to the
// Node.
func (v *varianceScaling) Avg() *varianceScaling {
	v.mode = "avg"
	return v
}

// Uniform sets the values to be drawn from a uniform distribution with the same variance.
func (v *varianceScaling) Uniform() *varianceScaling {
	v.dist = "uniform"
	return v
}

// Untruncated sets the values to be drawn from a normal distribution without truncation.
func (v *varianceScaling) Untruncated() *varianceScaling {
	v.dist = "normal"
	return v
}

func fans(n *xirt.Node) (int, int) {
	if f, ok := n.Operator().(xirt.Fanner); ok {
		return f.Fans(n)
	}

	return n.NumInputs(), n.Size()
}

// Set is the implementation of xirt.Initializer
func (v *varianceScaling) Set(n *xirt.Node, ws []float64) {
	in, out := fans(n)

	var scale float64
	if v.mode == "in" {
		scale = float64(in)
	} else if v.mode == "out" {
		scale = float64(out)
	} else { // must be "avg"
		scale = float64(in+out) / 2
	}
	scale = math.Max(1, scale)

	var gen RNG
	switch v.dist {
	case "uniform":
		limit := math.Sqrt(3 * v.factor / scale)
		gen = Uniform().Bounds(-limit, limit)
	case "normal":
		gen = Normal().SD(math.Sqrt(v.factor / scale))
	default:
		t := TruncNormal()
		t.SD(math.Sqrt(v.factor/scale) / truncatedSD)
		gen = t
	}

	for i := 0; i < len(ws); i++ {
		ws[i] = gen.Gen()
	}
}
