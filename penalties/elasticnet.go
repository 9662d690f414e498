package penalties

import (
	"math"
)

type elasticNet struct {
	α float64
	λ float64
}

// ElasticNet returns a penalty mixing L1 and L2. λ is a small value close to 0 where λ > 0, α is a
// value that controls the ratio between L1 and L2 Regularization, where 0 ≤ α ≤ 1. α = 1 is
// functionally identical to L1 and α = 0 is equivalent to L2.
func ElasticNet(α, λ float64) elasticNet {
	return elasticNet{α, λ}
}

func (p elasticNet) TypeString() string {
	return "elastic-net"
}

func (p elasticNet) Deriv(w float64) float64 {
	var sign float64
	if w != 0 {
		sign = math.Copysign(1, w)
	}
	return p.λ * ((1-p.α)*2*w + p.α*sign)
}

func (p elasticNet) Cost(ws []float64) float64 {
	var abs, sq float64
	for _, w := range ws {
		abs += math.Abs(w)
		sq += w * w
	}
	return p.λ * ((1-p.α)*sq + p.α*abs)
}

func (p elasticNet) Config() map[string]float64 {
	return map[string]float64{"l1": p.λ * p.α, "l2": p.λ * (1 - p.α)}
}
