package xirtnet

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt/hyperparams"
	"github.com/xirtnet/xirt/initializers"
)

// makeSamples gives n samples with random peptides of the given length, using tokens below vocab.
// Regression targets are the mean token, and class targets are one-hot or ordinal encodings.
func makeSamples(t *testing.T, x *XiRTNet, n, vocab int, pair bool) []Sample {
	t.Helper()

	rng := initializers.Rand()
	peptide := func() []float64 {
		p := make([]float64, x.InputDim)
		for i := range p {
			p[i] = math.Floor(rng.Float64() * float64(vocab))
		}
		return p
	}

	samples := make([]Sample, n)
	for i := range samples {
		s := Sample{Peptide1: peptide(), Targets: make(map[string][]float64)}
		if pair {
			s.Peptide2 = peptide()
		}

		for _, task := range x.Tasks {
			out, err := x.Output.Task(task)
			require.NoError(t, err)

			switch {
			case out.Dimension == 1:
				var sum float64
				for _, v := range s.Peptide1 {
					sum += v
				}
				s.Targets[task] = []float64{sum / float64(len(s.Peptide1)*vocab)}
			case out.Loss == "binary_crossentropy":
				v, err := EncodeOrdinal(i%(out.Dimension+1), out.Dimension)
				require.NoError(t, err)
				s.Targets[task] = v
			default:
				v := make([]float64, out.Dimension)
				v[i%out.Dimension] = 1
				s.Targets[task] = v
			}
		}

		samples[i] = s
	}

	return samples
}

func TestFit(t *testing.T) {
	p, err := LoadParams(filepath.Join("testdata", "xirt_params.toml"))
	require.NoError(t, err)

	x := New(p, 6)
	require.NoError(t, x.BuildModel(false))

	_, err = x.Fit(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNotCompiled)

	require.NoError(t, x.Compile())

	train := makeSamples(t, x, 10, 25, false)
	val := makeSamples(t, x, 4, 25, false)

	hist, err := x.Fit(context.Background(), train, val)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 2)

	for i, e := range hist.Epochs {
		assert.Equal(t, i+1, e.Epoch)
		assert.False(t, math.IsNaN(e.Loss))
		assert.False(t, math.IsNaN(e.ValLoss))
		assert.Contains(t, e.Metrics, "val_rp_mse")
		assert.Contains(t, e.Metrics, "val_scx_loss")
	}

	res, err := x.Evaluate(val)
	require.NoError(t, err)
	for _, k := range []string{"loss", "rp_loss", "rp_mse", "rp_mae", "scx_loss", "scx_categorical_accuracy"} {
		assert.Contains(t, res, k)
	}
	assert.InDelta(t, res["rp_loss"]+2.5*res["scx_loss"], res["loss"], 1e-9)

	preds, err := x.Predict(val)
	require.NoError(t, err)
	require.Len(t, preds["rp"], len(val))
	require.Len(t, preds["scx"], len(val))

	// softmax outputs
	var sum float64
	for _, v := range preds["scx"][0] {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-9)
}

func TestFitReducesLoss(t *testing.T) {
	p, err := LoadParams(filepath.Join("testdata", "xirt_params.toml"))
	require.NoError(t, err)

	// a single regression task: the mean token of the peptide
	p.Predictions.Fractions = nil
	p.Conv.Use = false
	p.LSTM.NLayers = 1
	p.LSTM.KernelRegularization = ""
	p.Learning.Optimizer = "adam"
	p.Learning.LearningRate = 0.01
	p.Learning.Epochs = 30

	x := New(p, 6)
	require.NoError(t, x.BuildModel(false))
	require.NoError(t, x.Compile())

	train := makeSamples(t, x, 16, 25, false)

	before, err := x.Evaluate(train)
	require.NoError(t, err)

	hist, err := x.Fit(context.Background(), train, nil)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 30)
	assert.Less(t, hist.Epochs[29].Loss, hist.Epochs[0].Loss)

	after, err := x.Evaluate(train)
	require.NoError(t, err)
	assert.Less(t, after["loss"], before["loss"])
	assert.Less(t, after["loss"], 0.05)
}

func TestFitInvalidTargets(t *testing.T) {
	p, err := LoadParams(filepath.Join("testdata", "xirt_params.toml"))
	require.NoError(t, err)

	x := New(p, 6)
	require.NoError(t, x.BuildModel(false))
	require.NoError(t, x.Compile())

	train := makeSamples(t, x, 2, 25, false)
	delete(train[1].Targets, "scx")

	_, err = x.Fit(context.Background(), train, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no target for task "scx"`)
}

func TestFitCancelled(t *testing.T) {
	p, err := LoadParams(filepath.Join("testdata", "xirt_params.toml"))
	require.NoError(t, err)

	x := New(p, 6)
	require.NoError(t, x.BuildModel(false))
	require.NoError(t, x.Compile())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hist, err := x.Fit(ctx, makeSamples(t, x, 4, 25, false), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hist.Epochs)
}

func TestFitSiameseWithCallbacks(t *testing.T) {
	p := loadFixture(t)
	p.Learning.Epochs = 3
	p.Learning.BatchSize = 4
	p.Callbacks.CallbackPath = filepath.Join(t.TempDir(), "callbacks")

	x := New(p, 5)
	require.NoError(t, x.BuildModel(true))
	require.NoError(t, x.Compile())

	cbs, err := x.GetCallbacks("test")
	require.NoError(t, err)

	names := make([]string, len(cbs))
	for i, cb := range cbs {
		names[i] = cb.Name()
	}
	assert.Equal(t, []string{"early_stopping", "reduce_lr", "check_point", "log_csv", "progress"}, names)

	train := makeSamples(t, x, 8, 5, true)
	val := makeSamples(t, x, 3, 5, true)

	hist, err := x.Fit(context.Background(), train, val, cbs...)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 3)

	weights := filepath.Join(p.Callbacks.CallbackPath, "xirt_weights_test.json")
	assert.FileExists(t, weights)
	require.NoError(t, x.LoadWeights(weights))

	b, err := os.ReadFile(filepath.Join(p.Callbacks.CallbackPath, "xirt_epochlog_test.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "epoch,loss,val_loss,lr,"))
	assert.True(t, strings.HasPrefix(lines[1], "1,"))
}

func TestPredictSinglePeptides(t *testing.T) {
	p := loadFixture(t)

	x := New(p, 5)
	require.NoError(t, x.BuildModel(true))

	single := []Sample{{Peptide1: []float64{0, 1, 2, 3, 4}}}
	paired := []Sample{{Peptide1: []float64{0, 1, 2, 3, 4}, Peptide2: []float64{0, 1, 2, 3, 4}}}

	a, err := x.Predict(single)
	require.NoError(t, err)
	b, err := x.Predict(paired)
	require.NoError(t, err)
	assert.Equal(t, b, a)

	x.Siamese.SinglePredictions = false
	_, err = x.Predict(single)
	assert.Error(t, err)
}

func TestEarlyStopping(t *testing.T) {
	x := &XiRTNet{logger: zerolog.Nop()}
	e := NewEarlyStopping(2)

	for i, c := range []struct {
		loss float64
		stop bool
	}{
		{1.0, false},
		{0.5, false},
		{0.6, false},
		{0.7, true},
	} {
		stop, err := e.OnEpochEnd(x, EpochLog{Epoch: i + 1, Loss: 10, ValLoss: c.loss})
		require.NoError(t, err)
		assert.Equal(t, c.stop, stop, "epoch %d", i+1)
	}

	// without validation the training loss is used
	e = NewEarlyStopping(1)
	stop, _ := e.OnEpochEnd(x, EpochLog{Loss: 1, ValLoss: math.NaN()})
	assert.False(t, stop)
	stop, _ = e.OnEpochEnd(x, EpochLog{Loss: 2, ValLoss: math.NaN()})
	assert.True(t, stop)
}

func TestStepDecay(t *testing.T) {
	x := &XiRTNet{
		logger: zerolog.Nop(),
		lr:     hyperparams.NewPlateau(0.1, 0.5, 10, 0),
		decay:  hyperparams.Step(1).Add(2, 0.5).Add(4, 0.25),
	}
	s := NewStepDecay()

	want := []float64{0.1, 0.05, 0.05, 0.025, 0.025}
	for i, lr := range want {
		_, err := s.OnEpochEnd(x, EpochLog{Epoch: i + 1})
		require.NoError(t, err)
		assert.InDelta(t, lr, x.LearningRate(), 1e-12, "epoch %d", i+1)
	}

	_, err := s.OnEpochEnd(&XiRTNet{logger: zerolog.Nop()}, EpochLog{Epoch: 1})
	assert.ErrorIs(t, err, ErrNotCompiled)
}

func TestStepDecayFromParams(t *testing.T) {
	p := loadFixture(t)
	p.Learning.LearningRate = 0.1
	p.Learning.DecayEpochs = []int{1, 3}
	p.Learning.DecayFactor = 0.5
	p.Callbacks = CallbackParams{}

	x := New(p, 10)
	require.NoError(t, x.BuildModel(false))
	require.NoError(t, x.Compile())

	cbs, err := x.GetCallbacks("")
	require.NoError(t, err)
	require.Len(t, cbs, 2)
	assert.Equal(t, "step_decay", cbs[0].Name())

	for epoch := 1; epoch <= 3; epoch++ {
		_, err := cbs[0].OnEpochEnd(x, EpochLog{Epoch: epoch})
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.025, x.LearningRate(), 1e-12)

	p.Learning.DecayEpochs = []int{3, 2}
	assert.Error(t, New(p, 10).BuildModel(false))
}

func TestReduceLR(t *testing.T) {
	x := &XiRTNet{logger: zerolog.Nop(), lr: hyperparams.NewPlateau(0.1, 0.5, 1, 0.01)}
	r := NewReduceLR()

	for _, loss := range []float64{1, 2} {
		_, err := r.OnEpochEnd(x, EpochLog{ValLoss: loss})
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.05, x.LearningRate(), 1e-12)

	_, err := r.OnEpochEnd(&XiRTNet{logger: zerolog.Nop()}, EpochLog{})
	assert.ErrorIs(t, err, ErrNotCompiled)
}
