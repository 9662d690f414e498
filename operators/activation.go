package operators

import (
	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/utils"
)

// activation is an elementwise function, along with its derivative. The derivative is given both
// the input and the output value, so that functions like tanh can use whichever is cheaper.
type activation struct {
	name string
	f    func(in float64) float64
	df   func(in, out float64) float64
}

func (a *activation) TypeString() string {
	return a.name
}

func (a *activation) OutputShape(inputs []*xirt.Node) ([]int, error) {
	return singleInput(inputs)
}

func (a *activation) Finalize(n *xirt.Node) error {
	// We don't need to check number of values because xirt does it for us
	return nil
}

func (a *activation) Evaluate(n *xirt.Node, values []float64) {
	inputs := n.InputValues(0)

	f := func(i int) {
		values[i] = a.f(inputs[i])
	}

	utils.MultiThread(0, len(values), f, opsPerThread, threadsPerCPU)
}

func (a *activation) InputDeltas(n *xirt.Node) []float64 {
	inputs := n.InputValues(0)
	values := n.Values()
	ds := make([]float64, len(values))

	f := func(i int) {
		ds[i] = n.Delta(i) * a.df(inputs[i], values[i])
	}

	utils.MultiThread(0, len(ds), f, opsPerThread, threadsPerCPU)
	return ds
}
