package optimizers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/costfuncs"
	"github.com/xirtnet/xirt/hyperparams"
	"github.com/xirtnet/xirt/initializers"
	"github.com/xirtnet/xirt/operators"
	"github.com/xirtnet/xirt/optimizers"
)

// fitLine trains a single Dense unit to y = 2x - 1 with the Optimizer, returning the cost before
// and after training.
func fitLine(t *testing.T, opt func() xirt.Optimizer, lr float64) (before, after float64) {
	t.Helper()
	initializers.Seed(5)

	net := xirt.New("line")
	net.AddHP("learning-rate", hyperparams.Constant(lr))
	require.NoError(t, net.SetOptimizer(opt))

	in := net.AddInput("x", []int{1})
	out := net.Add("y", operators.Dense(1), in)
	require.NoError(t, net.Finalize(costfuncs.MSE(), out))

	xs := []float64{-1, -0.5, 0, 0.5, 1}
	cost := func() float64 {
		var sum float64
		for _, x := range xs {
			o, err := net.GetOutputs([]float64{x})
			require.NoError(t, err)
			sum += net.Cost().Cost(o, []float64{2*x - 1})
		}
		return sum
	}

	before = cost()
	for epoch := 0; epoch < 300; epoch++ {
		for _, x := range xs {
			_, _, err := net.Correct([]float64{x}, []float64{2*x - 1}, true)
			require.NoError(t, err)
		}
		require.NoError(t, net.AddWeights())
	}

	return before, cost()
}

func TestOptimizersConverge(t *testing.T) {
	cases := map[string]float64{"sgd": 0.3, "adam": 0.05, "rmsprop": 0.03}

	for name, lr := range cases {
		opt, err := optimizers.Get(name)
		require.NoError(t, err, name)

		before, after := fitLine(t, opt, lr)
		assert.Less(t, after, before/100, name)
	}
}

func TestSGDMomentum(t *testing.T) {
	before, after := fitLine(t, func() xirt.Optimizer { return optimizers.SGD().Momentum(0.9) }, 0.05)
	assert.Less(t, after, before/100)
}

func TestGetUnknown(t *testing.T) {
	_, err := optimizers.Get("adagrad")
	assert.EqualError(t, err, `Unknown optimizer "adagrad"`)

	opt, err := optimizers.Get("Adam")
	require.NoError(t, err)
	assert.NotSame(t, opt(), opt())
	assert.Equal(t, []string{"learning-rate"}, opt().Needs())
}
