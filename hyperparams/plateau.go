package hyperparams

import (
	"math"
	"sync"
)

// Plateau is a HyperParameter that is reduced whenever a monitored value stops improving, in the
// manner of a reduce-on-plateau learning rate schedule. Values are given to it with Observe.
type Plateau struct {
	mux sync.RWMutex

	value    float64
	factor   float64
	patience int
	min      float64

	best float64
	wait int
}

// NewPlateau returns a Plateau starting at 'initial'. After 'patience' observations without
// improvement, the value is multiplied by 'factor', but never reduced below 'min'.
func NewPlateau(initial, factor float64, patience int, min float64) *Plateau {
	return &Plateau{
		value:    initial,
		factor:   factor,
		patience: patience,
		min:      min,
		best:     math.Inf(1),
	}
}

func (p *Plateau) TypeString() string {
	return "plateau"
}

func (p *Plateau) Value(iter int) float64 {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.value
}

// Observe gives the Plateau the latest value of the monitored quantity, where lower is better. It
// returns whether the value of the HyperParameter was reduced.
func (p *Plateau) Observe(loss float64) bool {
	p.mux.Lock()
	defer p.mux.Unlock()

	if loss < p.best {
		p.best = loss
		p.wait = 0
		return false
	}

	p.wait++
	if p.wait < p.patience || p.value <= p.min {
		return false
	}

	p.wait = 0
	p.value = math.Max(p.value*p.factor, p.min)
	return true
}

// Set replaces the current value.
func (p *Plateau) Set(v float64) {
	p.mux.Lock()
	p.value = v
	p.mux.Unlock()
}
