package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/initializers"
)

type dropout float64

// Dropout returns an operator that, while the Network is training, sets each value to zero with
// probability 'rate' and scales the rest by 1/(1-rate). Otherwise it gives its input unchanged.
func Dropout(rate float64) dropout {
	return dropout(rate)
}

func (d dropout) TypeString() string {
	return "dropout"
}

func (d dropout) OutputShape(inputs []*xirt.Node) ([]int, error) {
	if d < 0 || d >= 1 {
		return nil, errors.Errorf("Dropout rate must be in [0, 1) (%v)", float64(d))
	}

	return singleInput(inputs)
}

func (d dropout) Finalize(n *xirt.Node) error {
	return nil
}

// Evaluate stores the mask in the Node's cache, or nil if nothing was dropped
func (d dropout) Evaluate(n *xirt.Node, values []float64) {
	inputs := n.InputValues(0)

	if !n.Training() || d == 0 {
		copy(values, inputs)
		n.SetCache(nil)
		return
	}

	mask, _ := n.Cache().([]float64)
	if len(mask) != len(values) {
		mask = make([]float64, len(values))
	}

	scale := 1 / (1 - float64(d))
	rng := initializers.Rand()
	for i := range mask {
		if rng.Float64() < float64(d) {
			mask[i] = 0
		} else {
			mask[i] = scale
		}

		values[i] = inputs[i] * mask[i]
	}

	n.SetCache(mask)
}

func (d dropout) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.Size())
	copy(ds, n.Deltas())

	if mask, ok := n.Cache().([]float64); ok && mask != nil {
		for i := range ds {
			ds[i] *= mask[i]
		}
	}

	return ds
}
