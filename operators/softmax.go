package operators

import (
	"math"

	"github.com/xirtnet/xirt"
	"gonum.org/v1/gonum/floats"
)

type softmax int8

// Softmax returns the softmax function as a xirt.Operator. It normalizes over the last dimension of
// its input, so each row of a [steps, features] Node sums to 1.
func Softmax() softmax {
	return softmax(0)
}

func (t softmax) TypeString() string {
	return "softmax"
}

func (t softmax) OutputShape(inputs []*xirt.Node) ([]int, error) {
	return singleInput(inputs)
}

func (t softmax) Finalize(n *xirt.Node) error {
	return nil
}

// width returns the length of the last dimension of the Node
func (t softmax) width(n *xirt.Node) int {
	dims := n.Dims()
	return dims[len(dims)-1]
}

func (t softmax) Evaluate(n *xirt.Node, values []float64) {
	inputs := n.InputValues(0)
	w := t.width(n)

	for start := 0; start < len(values); start += w {
		in, out := inputs[start:start+w], values[start:start+w]

		// shifting by the max doesn't change the result, but keeps math.Exp from overflowing
		max := floats.Max(in)
		for i := range out {
			out[i] = math.Exp(in[i] - max)
		}

		floats.Scale(1/floats.Sum(out), out)
	}
}

func (t softmax) InputDeltas(n *xirt.Node) []float64 {
	values, deltas := n.Values(), n.Deltas()
	w := t.width(n)

	ds := make([]float64, n.Size())
	for start := 0; start < len(ds); start += w {
		vs := values[start : start+w]
		dot := floats.Dot(deltas[start:start+w], vs)
		for i := range vs {
			ds[start+i] = vs[i] * (deltas[start+i] - dot)
		}
	}

	return ds
}
