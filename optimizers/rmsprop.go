package optimizers

import (
	"math"

	"github.com/xirtnet/xirt"
)

type rmsprop struct {
	ρ, ε float64
	v    []float64
}

// RMSprop returns the RMSprop optimizer, with ρ = 0.9 and ε = 1e-7. It requires the HyperParameter
// "learning-rate".
func RMSprop() *rmsprop {
	return &rmsprop{ρ: 0.9, ε: 1e-7}
}

func (r *rmsprop) TypeString() string {
	return "rmsprop"
}

func (r *rmsprop) Needs() []string {
	return []string{"learning-rate"}
}

func (r *rmsprop) Run(n *xirt.Node, size int, grad func(int) float64, add func(int, float64)) {
	if len(r.v) != size {
		r.v = make([]float64, size)
	}

	lr := n.HP("learning-rate")
	for i := 0; i < size; i++ {
		g := grad(i)
		r.v[i] = r.ρ*r.v[i] + (1-r.ρ)*g*g
		add(i, -lr*g/(math.Sqrt(r.v[i])+r.ε))
	}
}
