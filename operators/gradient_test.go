package operators_test

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/costfuncs"
	"github.com/xirtnet/xirt/hyperparams"
	"github.com/xirtnet/xirt/initializers"
	"github.com/xirtnet/xirt/internal/logging"
	. "github.com/xirtnet/xirt/operators"
	"github.com/xirtnet/xirt/optimizers"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	os.Exit(m.Run())
}

func newNet() *xirt.Network {
	initializers.Seed(7)

	net := xirt.New("test")
	net.AddHP("learning-rate", hyperparams.Constant(1))
	net.DefaultOpt(func() xirt.Optimizer { return optimizers.SGD() })
	net.DefaultInit(initializers.Random(initializers.Uniform().Bounds(-0.5, 0.5)))
	return net
}

func randomValues(n int) []float64 {
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = initializers.Rand().Float64()*2 - 1
	}
	return vs
}

// gradCheck finalizes the Network with the given outputs, then compares a single step of gradient
// descent with a learning rate of 1 against the numerical derivatives of the cost with respect to
// every weight. Checking the weights before a Node also checks the input deltas it gives.
func gradCheck(t *testing.T, net *xirt.Network, outs ...*xirt.Node) {
	t.Helper()

	require.NoError(t, net.Error())
	require.NoError(t, net.Finalize(costfuncs.MSE(), outs...))

	in := randomValues(net.InputSize())
	target := randomValues(net.OutputSize())

	cost := func() float64 {
		o, err := net.GetOutputs(in)
		require.NoError(t, err)
		return net.Cost().Cost(o, target)
	}

	var sets [][]float64
	seen := make(map[xirt.Adjustable]bool)
	for _, n := range net.Nodes() {
		if adj, ok := n.Operator().(xirt.Adjustable); ok && !seen[adj] {
			seen[adj] = true
			sets = append(sets, adj.Weights())
		}
	}
	require.NotEmpty(t, sets)

	const eps = 1e-6
	numeric := make([][]float64, len(sets))
	before := make([][]float64, len(sets))
	for s, ws := range sets {
		numeric[s] = make([]float64, len(ws))
		for i := range ws {
			orig := ws[i]
			ws[i] = orig + eps
			plus := cost()
			ws[i] = orig - eps
			minus := cost()
			ws[i] = orig

			numeric[s][i] = (plus - minus) / (2 * eps)
		}
		before[s] = append([]float64(nil), ws...)
	}

	_, _, err := net.Correct(in, target, false)
	require.NoError(t, err)

	for s, ws := range sets {
		for i := range ws {
			analytic := before[s][i] - ws[i]
			tol := 1e-5 * math.Max(1, math.Abs(numeric[s][i]))
			assert.InDelta(t, numeric[s][i], analytic, tol, "weight set %d, index %d", s, i)
		}
	}
}

func TestDenseGradients(t *testing.T) {
	net := newNet()
	in := net.AddInput("in", []int{4})
	h := net.Add("hidden", Dense(5), in)
	h = net.Add("tanh", Tanh(), h)
	out := net.Add("out", Dense(3), h)

	gradCheck(t, net, out)
}

func TestActivationGradients(t *testing.T) {
	cases := map[string]func() xirt.Operator{
		"relu":       func() xirt.Operator { return ReLU() },
		"leaky_relu": func() xirt.Operator { return LeakyReLU(0.3) },
		"elu":        func() xirt.Operator { return ELU(1) },
		"softplus":   func() xirt.Operator { return Softplus() },
		"sigmoid":    func() xirt.Operator { return Logistic() },
		"softsign":   func() xirt.Operator { return Softsign() },
		"softmax":    func() xirt.Operator { return Softmax() },
	}

	for name, op := range cases {
		t.Run(name, func(t *testing.T) {
			net := newNet()
			in := net.AddInput("in", []int{3})
			h := net.Add("hidden", Dense(4), in)
			h = net.Add("act", op(), h)
			gradCheck(t, net, net.Add("out", Dense(2), h))
		})
	}
}

func TestSoftmaxRowGradients(t *testing.T) {
	net := newNet()
	in := net.AddInput("in", []int{3, 2})

	conv, err := Conv1D(3, 1).Pad("same")
	require.NoError(t, err)
	h := net.Add("conv", conv, in)
	h = net.Add("softmax", Softmax(), h)
	h = net.Add("flat", Flatten(), h)
	gradCheck(t, net, net.Add("out", Dense(2), h))
}

func TestRecurrentGradients(t *testing.T) {
	cases := []struct {
		name string
		op   func() xirt.Operator
	}{
		{"lstm", func() xirt.Operator { return LSTM(3) }},
		{"gru", func() xirt.Operator { return GRU(3) }},
		{"lstm sequences", func() xirt.Operator { return LSTM(2).ReturnSequences(true) }},
		{"gru reversed", func() xirt.Operator { return GRU(2).Reverse(true).ReturnSequences(true) }},
		{"lstm softsign", func() xirt.Operator { return LSTM(3).Activation(Softsign()) }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			net := newNet()
			in := net.AddInput("in", []int{4, 2})

			// a pointwise convolution before the layer checks its input deltas
			conv, err := Conv1D(2, 1).Pad("same")
			require.NoError(t, err)
			h := net.Add("conv", conv, in)
			h = net.Add("rnn", c.op(), h)
			gradCheck(t, net, net.Add("out", Dense(2), h))
		})
	}
}

func TestStackedBidirectionalGradients(t *testing.T) {
	net := newNet()
	in := net.AddInput("in", []int{3, 2})

	fwd := GRU(2).ReturnSequences(true)
	h := Bidirectional(net, "bi", fwd, fwd.Backward(), in)
	h = net.Add("lstm", LSTM(2), h)

	require.NoError(t, net.Error())
	assert.Equal(t, []int{3, 4}, net.Node("bi").Dims())
	gradCheck(t, net, net.Add("out", Dense(1), h))
}

func TestConvGradients(t *testing.T) {
	for _, pad := range []string{"valid", "same"} {
		t.Run(pad, func(t *testing.T) {
			net := newNet()
			in := net.AddInput("in", []int{6, 2})

			first, err := Conv1D(2, 1).Pad("same")
			require.NoError(t, err)
			conv, err := Conv1D(3, 3).Pad(pad)
			require.NoError(t, err)

			h := net.Add("first", first, in)
			h = net.Add("conv", conv, h)
			h = net.Add("pool", MaxPool1D(2), h)
			h = net.Add("flat", Flatten(), h)
			gradCheck(t, net, net.Add("out", Dense(2), h))
		})
	}
}

func TestEmbeddingGradients(t *testing.T) {
	net := newNet()
	in := net.AddInput("tokens", []int{4})
	h := net.Add("emb", Embedding(5, 3), in)
	h = net.Add("gru", GRU(2), h)
	out := net.Add("out", Dense(1), h)

	require.NoError(t, net.Error())
	require.NoError(t, net.Finalize(costfuncs.MSE(), out))

	// the tokens must be integers, so check by hand instead of with random inputs
	tokens := []float64{0, 3, 3, 1}
	target := []float64{0.5}
	ws := net.Node("emb").Operator().(xirt.Adjustable).Weights()

	cost := func() float64 {
		o, err := net.GetOutputs(tokens)
		require.NoError(t, err)
		return net.Cost().Cost(o, target)
	}

	const eps = 1e-6
	numeric := make([]float64, len(ws))
	for i := range ws {
		orig := ws[i]
		ws[i] = orig + eps
		plus := cost()
		ws[i] = orig - eps
		minus := cost()
		ws[i] = orig
		numeric[i] = (plus - minus) / (2 * eps)
	}
	before := append([]float64(nil), ws...)

	_, _, err := net.Correct(tokens, target, false)
	require.NoError(t, err)

	for i := range ws {
		assert.InDelta(t, numeric[i], before[i]-ws[i], 1e-5, "index %d", i)
	}

	// token 2 and 4 never appear
	for f := 0; f < 3; f++ {
		assert.Zero(t, numeric[2*3+f])
		assert.Zero(t, numeric[4*3+f])
	}
}

func TestMergeGradients(t *testing.T) {
	cases := map[string]func() xirt.Operator{
		"add":         func() xirt.Operator { return Add() },
		"multiply":    func() xirt.Operator { return Mult() },
		"average":     func() xirt.Operator { return Average() },
		"maximum":     func() xirt.Operator { return Maximum() },
		"concatenate": func() xirt.Operator { return Concat() },
	}

	for name, merge := range cases {
		t.Run(name, func(t *testing.T) {
			net := newNet()
			in := net.AddInput("in", []int{3})
			a := net.Add("a", Dense(4), in)
			b := net.Add("b", Dense(4), in)
			m := net.Add("merge", merge(), a, b)
			gradCheck(t, net, net.Add("out", Dense(2), m))
		})
	}
}

func TestSharedWeightGradients(t *testing.T) {
	net := newNet()
	a := net.AddInput("a", []int{3})
	b := net.AddInput("b", []int{3})

	shared := Dense(4)
	ha := net.Add("dense_a", shared, a)
	hb := net.Add("dense_b", shared, b)
	assert.True(t, ha.Shared())

	m := net.Add("merge", Mult(), ha, hb)
	gradCheck(t, net, net.Add("out", Dense(1), m))
}

func TestBatchNormGradients(t *testing.T) {
	net := newNet()
	in := net.AddInput("in", []int{2, 3})
	h := net.Add("bn", BatchNorm(), in)
	h = net.Add("dense", Dense(3), h)
	h = net.Add("bn2", BatchNorm(), h)
	gradCheck(t, net, net.Add("out", Dense(2), h))
}

func TestActivityPenaltyChangesDeltas(t *testing.T) {
	build := func(pen bool) []float64 {
		net := newNet()
		in := net.AddInput("in", []int{2})
		h := net.Add("h", Dense(3), in)
		if pen {
			h.ActivityPenalty(l2{0.5})
		}
		out := net.Add("out", Dense(1), h)
		require.NoError(t, net.Finalize(costfuncs.MSE(), out))

		_, _, err := net.Correct([]float64{1, -1}, []float64{0}, false)
		require.NoError(t, err)
		return append([]float64(nil), net.Node("h").Deltas()...)
	}

	assert.NotEqual(t, build(false), build(true))
}

type l2 struct{ λ float64 }

func (p l2) TypeString() string      { return "l2" }
func (p l2) Deriv(v float64) float64 { return 2 * p.λ * v }
func (p l2) Cost(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v * v
	}
	return p.λ * sum
}
