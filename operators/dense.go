package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
	"gonum.org/v1/gonum/mat"
)

type dense struct {
	units int

	// the number of input values, set when the first Node is finalized
	in int

	// the kernel, stored row-major with one row per unit, followed by the biases
	Ws []float64
}

// Dense returns a fully-connected layer of neurons with the given number of units, which
// implements xirt.Adjustable. All input values are used, regardless of their dimensions.
//
// Giving the same Dense Operator to multiple Nodes makes them share weights; their inputs must have
// the same size.
func Dense(units int) *dense {
	return &dense{units: units}
}

func (d *dense) TypeString() string {
	return "dense"
}

func (d *dense) OutputShape(inputs []*xirt.Node) ([]int, error) {
	if d.units < 1 {
		return nil, errors.Errorf("Number of units must be >= 1 (%d)", d.units)
	}

	return []int{d.units}, nil
}

func (d *dense) Finalize(n *xirt.Node) error {
	if d.Ws != nil {
		if n.NumInputs() != d.in {
			return errors.Errorf("Shared dense layer expects %d inputs, Node %v has %d", d.in, n, n.NumInputs())
		}
		return nil
	}

	d.in = n.NumInputs()
	d.Ws = make([]float64, d.units*d.in+d.units)
	return nil
}

func (d *dense) Weights() []float64 {
	return d.Ws
}

func (d *dense) KernelSize() int {
	return d.units * d.in
}

func (d *dense) Fans(n *xirt.Node) (int, int) {
	return d.in, d.units
}

func (d *dense) kernel(ws []float64) *mat.Dense {
	return mat.NewDense(d.units, d.in, ws[:d.units*d.in])
}

func (d *dense) Evaluate(n *xirt.Node, values []float64) {
	out := mat.NewVecDense(d.units, values)
	out.MulVec(d.kernel(d.Ws), mat.NewVecDense(d.in, n.AllInputs()))

	bias := d.Ws[d.units*d.in:]
	for i := range values {
		values[i] += bias[i]
	}
}

func (d *dense) InputDeltas(n *xirt.Node) []float64 {
	ds := mat.NewVecDense(d.in, nil)
	ds.MulVec(d.kernel(d.Ws).T(), mat.NewVecDense(d.units, n.Deltas()))
	return ds.RawVector().Data
}

func (d *dense) Grad(n *xirt.Node, grads []float64) {
	deltas := mat.NewVecDense(d.units, n.Deltas())

	g := d.kernel(grads)
	g.RankOne(g, 1, deltas, mat.NewVecDense(d.in, n.AllInputs()))

	bias := grads[d.units*d.in:]
	for i, v := range n.Deltas() {
		bias[i] += v
	}
}
