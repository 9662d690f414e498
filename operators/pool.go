package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

// ****************************************
// MaxPool1D
// ****************************************

type maxPool1D struct {
	size int
}

// MaxPool1D returns an operator giving the maximum of each feature over non-overlapping windows of
// 'size' steps. Its input must have dimensions [steps, features]; any steps left over at the end
// are dropped.
func MaxPool1D(size int) *maxPool1D {
	return &maxPool1D{size}
}

func (p *maxPool1D) TypeString() string {
	return "max-pool1d"
}

func (p *maxPool1D) OutputShape(inputs []*xirt.Node) ([]int, error) {
	steps, features, err := sequenceInput(inputs)
	if err != nil {
		return nil, err
	} else if p.size < 1 {
		return nil, errors.Errorf("Pool size must be >= 1 (%d)", p.size)
	} else if steps/p.size < 1 {
		return nil, errors.Errorf("Pool size %d is larger than the number of steps (%d)", p.size, steps)
	}

	return []int{steps / p.size, features}, nil
}

func (p *maxPool1D) Finalize(n *xirt.Node) error {
	n.SetCache(make([]int, n.Size()))
	return nil
}

func (p *maxPool1D) Evaluate(n *xirt.Node, values []float64) {
	inputs := n.InputValues(0)
	features := n.Dims()[1]
	from := n.Cache().([]int)

	for i := range values {
		t, f := i/features, i%features

		best := (t*p.size)*features + f
		for s := 1; s < p.size; s++ {
			in := (t*p.size+s)*features + f
			if inputs[in] > inputs[best] {
				best = in
			}
		}

		values[i] = inputs[best]
		from[i] = best
	}
}

func (p *maxPool1D) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.NumInputs())
	for i, in := range n.Cache().([]int) {
		ds[in] += n.Delta(i)
	}

	return ds
}

// ****************************************
// Flatten
// ****************************************

type flatten int8

// Flatten returns an operator that gives its input unchanged, as a single dimension.
func Flatten() flatten {
	return flatten(0)
}

func (t flatten) TypeString() string {
	return "flatten"
}

func (t flatten) OutputShape(inputs []*xirt.Node) ([]int, error) {
	dims, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}

	return []int{product(dims)}, nil
}

func (t flatten) Finalize(n *xirt.Node) error {
	return nil
}

func (t flatten) Evaluate(n *xirt.Node, values []float64) {
	copy(values, n.InputValues(0))
}

func (t flatten) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.Size())
	copy(ds, n.Deltas())
	return ds
}
