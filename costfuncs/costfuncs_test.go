package costfuncs_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/costfuncs"
)

// checkDerivs compares the derivatives of a CostFunction with central differences of its cost
func checkDerivs(t *testing.T, cf xirt.CostFunction, outs, targets []float64) {
	t.Helper()

	const eps = 1e-7
	ds := cf.Derivs(outs, targets)
	require.Len(t, ds, len(outs))

	for i := range outs {
		orig := outs[i]
		outs[i] = orig + eps
		plus := cf.Cost(outs, targets)
		outs[i] = orig - eps
		minus := cf.Cost(outs, targets)
		outs[i] = orig

		assert.InDelta(t, (plus-minus)/(2*eps), ds[i], 1e-5, "%s, index %d", cf.TypeString(), i)
	}
}

func TestDerivs(t *testing.T) {
	cases := []struct {
		name          string
		outs, targets []float64
	}{
		{"mse", []float64{0.2, -1, 3}, []float64{0, 0.5, 2}},
		{"mae", []float64{0.2, -1, 3}, []float64{0, 0.5, 2}},
		{"huber", []float64{0.2, -1, 3.5}, []float64{0, 0.5, 2}},
		{"binary_crossentropy", []float64{0.9, 0.4, 0.1}, []float64{1, 1, 0}},
		{"categorical_crossentropy", []float64{0.7, 0.2, 0.1}, []float64{0, 1, 0}},
	}

	for _, c := range cases {
		cf, err := costfuncs.Get(c.name)
		require.NoError(t, err, c.name)
		checkDerivs(t, cf, c.outs, c.targets)
	}
}

func TestGet(t *testing.T) {
	cf, err := costfuncs.Get("Mean_Squared_Error")
	require.NoError(t, err)
	assert.Equal(t, "mse", cf.TypeString())

	_, err = costfuncs.Get("poisson")
	assert.EqualError(t, err, `Unknown loss "poisson"`)
}

func TestCrossEntropyClipping(t *testing.T) {
	cf := costfuncs.BinaryCrossEntropy()

	c := cf.Cost([]float64{0, 1}, []float64{1, 0})
	assert.False(t, math.IsNaN(c))
	assert.Less(t, c, 1e3)
	assert.Equal(t, []float64{0, 0}, cf.Derivs([]float64{0, 1}, []float64{1, 0}))
}

func TestSplit(t *testing.T) {
	_, err := costfuncs.Split()
	assert.Error(t, err)

	_, err = costfuncs.Split(costfuncs.Part{Name: "a", Size: 0, Weight: 1, Cost: costfuncs.MSE()})
	assert.Error(t, err)

	_, err = costfuncs.Split(costfuncs.Part{Name: "a", Size: 1, Weight: 1})
	assert.ErrorAs(t, err, new(xirt.NilArgError))

	s, err := costfuncs.Split(
		costfuncs.Part{Name: "rp", Size: 1, Weight: 1, Cost: costfuncs.MSE()},
		costfuncs.Part{Name: "scx", Size: 2, Weight: 3, Cost: costfuncs.MAE()},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Size())
	assert.Len(t, s.Parts(), 2)

	outs := []float64{1, 0.5, 0.5}
	targets := []float64{0, 0, 1}

	parts := s.PartCosts(outs, targets)
	assert.InDelta(t, 1, parts["rp"], 1e-12)
	assert.InDelta(t, 0.5, parts["scx"], 1e-12)
	assert.InDelta(t, 2.5, s.Cost(outs, targets), 1e-12)

	checkDerivs(t, s, []float64{1, 0.2, 0.7}, targets)

	assert.Panics(t, func() { s.Cost([]float64{1}, []float64{1}) })
}
