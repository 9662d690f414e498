package optimizers

import (
	"github.com/xirtnet/xirt"
)

type sgd struct {
	momentum float64
	velocity []float64
}

// SGD returns stochastic gradient descent, which implements xirt.Optimizer. It requires the
// HyperParameter "learning-rate".
func SGD() *sgd {
	return &sgd{}
}

// Momentum sets the momentum of the Optimizer. With a momentum of zero (the default), each step is
// simply the gradient multiplied by the learning rate.
func (g *sgd) Momentum(m float64) *sgd {
	g.momentum = m
	return g
}

func (g *sgd) TypeString() string {
	return "sgd"
}

func (g *sgd) Needs() []string {
	return []string{"learning-rate"}
}

func (g *sgd) Run(n *xirt.Node, size int, grad func(int) float64, add func(int, float64)) {
	learningRate := n.HP("learning-rate")

	if g.momentum == 0 {
		for i := 0; i < size; i++ {
			add(i, -1*learningRate*grad(i))
		}
		return
	}

	if len(g.velocity) != size {
		g.velocity = make([]float64, size)
	}

	for i := 0; i < size; i++ {
		g.velocity[i] = g.momentum*g.velocity[i] - learningRate*grad(i)
		add(i, g.velocity[i])
	}
}
