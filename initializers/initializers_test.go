package initializers_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/costfuncs"
	"github.com/xirtnet/xirt/initializers"
	"github.com/xirtnet/xirt/operators"
)

// denseWeights returns the weights of a Dense layer with 'in' inputs and 'units' outputs after
// being set by the Initializer
func denseWeights(t *testing.T, init xirt.Initializer, in, units int) []float64 {
	t.Helper()

	net := xirt.New("init")
	i := net.AddInput("in", []int{in})
	d := net.Add("dense", operators.Dense(units), i).Init(init)
	require.NoError(t, net.Finalize(costfuncs.MSE(), d))

	return d.Operator().(xirt.Adjustable).Weights()
}

func TestGet(t *testing.T) {
	for _, name := range []string{"glorot_uniform", "He_Normal", "lecun_uniform", "orthogonal", "zeros", "truncated_normal"} {
		init, err := initializers.Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, init, name)
	}

	_, err := initializers.Get("identity")
	assert.EqualError(t, err, `Unknown initializer "identity"`)
}

func TestVarianceScalingBounds(t *testing.T) {
	initializers.Seed(1)

	// He uniform, with limit sqrt(3 * 2 / 6)
	ws := denseWeights(t, initializers.He().Uniform(), 6, 20)
	limit := 1.0

	kernel := ws[:6*20]
	for _, w := range kernel {
		assert.LessOrEqual(t, math.Abs(w), limit)
	}

	for _, b := range ws[6*20:] {
		assert.Zero(t, b)
	}

	var nonzero int
	for _, w := range kernel {
		if w != 0 {
			nonzero++
		}
	}
	assert.Equal(t, len(kernel), nonzero)
}

func TestTruncatedNormal(t *testing.T) {
	initializers.Seed(2)

	g := initializers.TruncNormal().Trunc(1.5)
	g.SD(2).Mean(1)
	for i := 0; i < 1000; i++ {
		v := g.Gen()
		assert.True(t, v >= 1-3 && v <= 1+3, "value %v", v)
	}

	assert.Panics(t, func() { initializers.TruncNormal().Trunc(0) })
}

func TestOrthogonal(t *testing.T) {
	initializers.Seed(3)

	for _, shape := range [][2]int{{6, 4}, {4, 6}, {5, 5}} {
		rows, cols := shape[0], shape[1]
		ws := make([]float64, rows*cols)
		initializers.Orthogonal(rows, cols, ws)

		m := mat.NewDense(rows, cols, ws)
		var prod mat.Dense
		if rows >= cols {
			prod.Mul(m.T(), m)
		} else {
			prod.Mul(m, m.T())
		}

		r, _ := prod.Dims()
		assert.True(t, mat.EqualApprox(&prod, eye(r), 1e-10), "shape %v", shape)
	}
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestSeedReproducible(t *testing.T) {
	initializers.Seed(42)
	a := denseWeights(t, initializers.Glorot(), 3, 3)
	a = append([]float64(nil), a...)

	initializers.Seed(42)
	b := denseWeights(t, initializers.Glorot(), 3, 3)
	assert.Equal(t, a, b)

	initializers.Seed(42)
	p := initializers.Rand().Perm(10)
	initializers.Seed(42)
	assert.Equal(t, p, initializers.Rand().Perm(10))
}

func TestSetDefault(t *testing.T) {
	assert.Error(t, initializers.SetDefault("missing", 1))
	assert.Error(t, initializers.SetDefault("normal-sd", math.NaN()))
	assert.NoError(t, initializers.SetDefault("uniform-upper", 0.05))
}
