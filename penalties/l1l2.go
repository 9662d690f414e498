package penalties

import (
	"math"
)

// **********************************************
// L1
// **********************************************

type l1 float64

// L1 returns the penalty λ·Σ|w|. λ is a small value close to 0 where λ > 0
func L1(λ float64) l1 {
	return l1(λ)
}

func (p l1) TypeString() string {
	return "l1"
}

func (p l1) Deriv(w float64) float64 {
	if w == 0 {
		return 0
	}
	return float64(p) * math.Copysign(1, w)
}

func (p l1) Cost(ws []float64) float64 {
	var sum float64
	for _, w := range ws {
		sum += math.Abs(w)
	}
	return float64(p) * sum
}

func (p l1) Config() map[string]float64 {
	return map[string]float64{"l1": float64(p), "l2": 0}
}

// **********************************************
// L2
// **********************************************

type l2 float64

// L2 returns the penalty λ·Σw². λ is a small value close to 0 where λ > 0
func L2(λ float64) l2 {
	return l2(λ)
}

func (p l2) TypeString() string {
	return "l2"
}

func (p l2) Deriv(w float64) float64 {
	return 2 * float64(p) * w
}

func (p l2) Cost(ws []float64) float64 {
	var sum float64
	for _, w := range ws {
		sum += w * w
	}
	return float64(p) * sum
}

func (p l2) Config() map[string]float64 {
	return map[string]float64{"l1": 0, "l2": float64(p)}
}

// **********************************************
// L1L2
// **********************************************

type l1l2 struct {
	l1 l1
	l2 l2
}

// L1L2 returns the sum of the L1 and L2 penalties, with separate factors.
func L1L2(λ1, λ2 float64) l1l2 {
	return l1l2{L1(λ1), L2(λ2)}
}

func (p l1l2) TypeString() string {
	return "l1_l2"
}

func (p l1l2) Deriv(w float64) float64 {
	return p.l1.Deriv(w) + p.l2.Deriv(w)
}

func (p l1l2) Cost(ws []float64) float64 {
	return p.l1.Cost(ws) + p.l2.Cost(ws)
}

func (p l1l2) Config() map[string]float64 {
	return map[string]float64{"l1": float64(p.l1), "l2": float64(p.l2)}
}
