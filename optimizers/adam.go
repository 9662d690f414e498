package optimizers

import (
	"math"

	"github.com/xirtnet/xirt"
)

type adam struct {
	β1, β2, ε float64

	// number of steps taken so far
	t int

	m, v []float64
}

// Adam returns the Adam optimizer, with the defaults used by Keras: β1 = 0.9, β2 = 0.999 and
// ε = 1e-7. It requires the HyperParameter "learning-rate".
func Adam() *adam {
	return &adam{β1: 0.9, β2: 0.999, ε: 1e-7}
}

func (a *adam) TypeString() string {
	return "adam"
}

func (a *adam) Needs() []string {
	return []string{"learning-rate"}
}

func (a *adam) Run(n *xirt.Node, size int, grad func(int) float64, add func(int, float64)) {
	if len(a.m) != size {
		a.m = make([]float64, size)
		a.v = make([]float64, size)
		a.t = 0
	}

	a.t++
	t := float64(a.t)
	lr := n.HP("learning-rate") * math.Sqrt(1-math.Pow(a.β2, t)) / (1 - math.Pow(a.β1, t))

	for i := 0; i < size; i++ {
		g := grad(i)
		a.m[i] = a.β1*a.m[i] + (1-a.β1)*g
		a.v[i] = a.β2*a.v[i] + (1-a.β2)*g*g

		add(i, -lr*a.m[i]/(math.Sqrt(a.v[i])+a.ε))
	}
}
