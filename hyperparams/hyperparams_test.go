package hyperparams_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xirtnet/xirt/hyperparams"
)

func TestConstant(t *testing.T) {
	c := hyperparams.Constant(0.01)
	assert.Equal(t, 0.01, c.Value(0))
	assert.Equal(t, 0.01, c.Value(1000))
}

func TestStep(t *testing.T) {
	s := hyperparams.Step(1).Add(10, 0.5).Add(20, 0.1)

	for iter, want := range map[int]float64{0: 1, 9: 1, 10: 0.5, 19: 0.5, 20: 0.1, 500: 0.1} {
		assert.Equal(t, want, s.Value(iter), "iter %d", iter)
	}
}

func TestPlateau(t *testing.T) {
	p := hyperparams.NewPlateau(1, 0.1, 2, 0.005)

	steps := []struct {
		loss    float64
		reduced bool
		value   float64
	}{
		{1.0, false, 1},
		{0.9, false, 1},
		{0.95, false, 1},
		{0.91, true, 0.1},
		{0.8, false, 0.1},
		{0.8, false, 0.1},
		{0.8, true, 0.01},
		{0.8, false, 0.01},
		{0.8, true, 0.005},
		{0.8, false, 0.005},
		{0.8, false, 0.005},
	}

	for i, s := range steps {
		assert.Equal(t, s.reduced, p.Observe(s.loss), "step %d", i)
		assert.InDelta(t, s.value, p.Value(0), 1e-12, "step %d", i)
	}

	p.Set(0.5)
	assert.Equal(t, 0.5, p.Value(0))
}
