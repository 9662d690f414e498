package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

type concat int8

// Concat returns an operator that joins its inputs along their last dimension. All other
// dimensions must be equal. For one-dimensional inputs, this is simply the inputs in order.
func Concat() concat {
	return concat(0)
}

func (t concat) TypeString() string {
	return "concatenate"
}

func (t concat) OutputShape(inputs []*xirt.Node) ([]int, error) {
	if len(inputs) == 0 {
		return nil, errors.Errorf("Concatenation requires at least 1 input")
	}

	first := inputs[0].Dims()
	outer := first[:len(first)-1]
	last := first[len(first)-1]

	for i := 1; i < len(inputs); i++ {
		dims := inputs[i].Dims()
		if !sameDims(dims[:len(dims)-1], outer) {
			return nil, errors.Errorf("Can't concatenate input %d with dimensions %v onto %v", i, dims, first)
		}
		last += dims[len(dims)-1]
	}

	return append(append([]int(nil), outer...), last), nil
}

func (t concat) Finalize(n *xirt.Node) error {
	return nil
}

// rows returns the number of rows along which the inputs are joined, and the width of each input
func (t concat) rows(n *xirt.Node) (int, []int) {
	dims := n.Dims()
	rows := product(dims[:len(dims)-1])

	widths := make([]int, n.NumInputNodes())
	for i := range widths {
		widths[i] = n.Input(i).Size() / rows
	}
	return rows, widths
}

func (t concat) Evaluate(n *xirt.Node, values []float64) {
	rows, widths := t.rows(n)

	pos := 0
	for r := 0; r < rows; r++ {
		for in, w := range widths {
			copy(values[pos:pos+w], n.InputValues(in)[r*w:(r+1)*w])
			pos += w
		}
	}
}

func (t concat) InputDeltas(n *xirt.Node) []float64 {
	rows, widths := t.rows(n)
	ds := make([]float64, n.NumInputs())

	// start of each input within ds
	starts := make([]int, len(widths))
	for in := 1; in < len(widths); in++ {
		starts[in] = starts[in-1] + widths[in-1]*rows
	}

	deltas := n.Deltas()
	pos := 0
	for r := 0; r < rows; r++ {
		for in, w := range widths {
			copy(ds[starts[in]+r*w:starts[in]+(r+1)*w], deltas[pos:pos+w])
			pos += w
		}
	}

	return ds
}
