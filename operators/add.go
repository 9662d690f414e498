package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/utils"
)

// equalShape is the OutputShape shared by the elementwise merges; all inputs must have the same
// dimensions.
func equalShape(inputs []*xirt.Node) ([]int, error) {
	if len(inputs) < 2 {
		return nil, errors.Errorf("Merging requires at least 2 inputs, got %d", len(inputs))
	}

	dims := inputs[0].Dims()
	for i := 1; i < len(inputs); i++ {
		if !sameDims(inputs[i].Dims(), dims) {
			return nil, errors.Errorf("All inputs must have equal dimensions (input %d has %v, input 0 has %v)",
				i, inputs[i].Dims(), dims)
		}
	}

	return dims, nil
}

// ****************************************
// Add
// ****************************************

type add int8

// Add returns an elementwise addition operator that implements xirt.Operator. All inputs to its
// Node must have the same dimensions as the Node.
func Add() add {
	return add(0)
}

func (t add) TypeString() string {
	return "add"
}

func (t add) OutputShape(inputs []*xirt.Node) ([]int, error) {
	return equalShape(inputs)
}

func (t add) Finalize(n *xirt.Node) error {
	return nil
}

func (t add) Evaluate(n *xirt.Node, values []float64) {
	f := func(i int) {
		values[i] = n.InputValues(0)[i]
		for in := 1; in < n.NumInputNodes(); in++ {
			values[i] += n.InputValues(in)[i]
		}
	}

	utils.MultiThread(0, len(values), f, opsPerThread, threadsPerCPU)
}

func (t add) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.NumInputs())

	f := func(i int) {
		ds[i] = n.Delta(i % n.Size())
	}

	utils.MultiThread(0, len(ds), f, opsPerThread, threadsPerCPU)
	return ds
}

// ****************************************
// Mult
// ****************************************

type mult int8

// Mult returns an elementwise multiplication operator that implements xirt.Operator. All inputs to
// its Node must have the same dimensions as the Node.
func Mult() mult {
	return mult(0)
}

func (t mult) TypeString() string {
	return "multiply"
}

func (t mult) OutputShape(inputs []*xirt.Node) ([]int, error) {
	return equalShape(inputs)
}

func (t mult) Finalize(n *xirt.Node) error {
	return nil
}

func (t mult) Evaluate(n *xirt.Node, values []float64) {
	f := func(i int) {
		values[i] = n.InputValues(0)[i]
		for in := 1; in < n.NumInputNodes(); in++ {
			values[i] *= n.InputValues(in)[i]
		}
	}

	utils.MultiThread(0, len(values), f, opsPerThread, threadsPerCPU)
}

func (t mult) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.NumInputs())
	size := n.Size()

	// the product of the other inputs is recomputed instead of dividing the value by the input,
	// which would fail for inputs of zero
	f := func(i int) {
		in, v := i/size, i%size
		p := n.Delta(v)
		for o := 0; o < n.NumInputNodes(); o++ {
			if o != in {
				p *= n.InputValues(o)[v]
			}
		}
		ds[i] = p
	}

	utils.MultiThread(0, len(ds), f, opsPerThread, threadsPerCPU)
	return ds
}

// ****************************************
// Average
// ****************************************

type average int8

// Average returns an operator giving the elementwise mean of its inputs.
func Average() average {
	return average(0)
}

func (t average) TypeString() string {
	return "average"
}

func (t average) OutputShape(inputs []*xirt.Node) ([]int, error) {
	return equalShape(inputs)
}

func (t average) Finalize(n *xirt.Node) error {
	return nil
}

func (t average) Evaluate(n *xirt.Node, values []float64) {
	add(0).Evaluate(n, values)

	k := float64(n.NumInputNodes())
	for i := range values {
		values[i] /= k
	}
}

func (t average) InputDeltas(n *xirt.Node) []float64 {
	ds := add(0).InputDeltas(n)

	k := float64(n.NumInputNodes())
	for i := range ds {
		ds[i] /= k
	}
	return ds
}

// ****************************************
// Maximum
// ****************************************

type maximum int8

// Maximum returns an operator giving the elementwise maximum of its inputs. Deltas are passed only
// to the input that held the maximum; ties go to the earliest input.
func Maximum() maximum {
	return maximum(0)
}

func (t maximum) TypeString() string {
	return "maximum"
}

func (t maximum) OutputShape(inputs []*xirt.Node) ([]int, error) {
	return equalShape(inputs)
}

func (t maximum) Finalize(n *xirt.Node) error {
	return nil
}

// argmax returns the index of the input Node with the largest value at 'v'
func (t maximum) argmax(n *xirt.Node, v int) int {
	best := 0
	for in := 1; in < n.NumInputNodes(); in++ {
		if n.InputValues(in)[v] > n.InputValues(best)[v] {
			best = in
		}
	}
	return best
}

func (t maximum) Evaluate(n *xirt.Node, values []float64) {
	f := func(i int) {
		values[i] = n.InputValues(t.argmax(n, i))[i]
	}

	utils.MultiThread(0, len(values), f, opsPerThread, threadsPerCPU)
}

func (t maximum) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.NumInputs())
	size := n.Size()

	for v := 0; v < size; v++ {
		ds[t.argmax(n, v)*size+v] = n.Delta(v)
	}

	return ds
}
