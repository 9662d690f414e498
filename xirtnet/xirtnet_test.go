package xirtnet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt/internal/logging"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	os.Exit(m.Run())
}

func loadFixture(t *testing.T) Params {
	t.Helper()

	p, err := LoadParams(filepath.Join("testdata", "xirt_params.yaml"))
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	p := loadFixture(t)
	x := New(p, 100)

	assert.Nil(t, x.Model())
	assert.Equal(t, 100, x.InputDim)
	assert.Equal(t, p.LSTM, x.LSTM)
	assert.Equal(t, p.Conv, x.Conv)
	assert.Equal(t, p.Dense, x.Dense)
	assert.Equal(t, p.Embedding, x.Embedding)
	assert.Equal(t, p.Learning, x.Learning)
	assert.Equal(t, p.Output, x.Output)
	assert.Equal(t, p.Siamese, x.Siamese)
	assert.Equal(t, []string{"rp", "scx", "hsax"}, x.Tasks)
	assert.False(t, x.IsCompiled())
}

func TestLoadParamsTOML(t *testing.T) {
	p, err := LoadParams(filepath.Join("testdata", "xirt_params.toml"))
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, []string{"rp", "scx"}, p.Tasks())
	assert.Equal(t, "LSTM", p.LSTM.Type)
	assert.Equal(t, 2, p.LSTM.NLayers)
	assert.Equal(t, int64(42), p.Learning.Seed)

	rp, err := p.Output.Task("rp")
	require.NoError(t, err)
	assert.Equal(t, TaskOutput{Dimension: 1, Activation: "linear", Loss: "mse", Metrics: []string{"mse", "mae"}, Weight: 1}, rp)

	scx, err := p.Output.Task("scx")
	require.NoError(t, err)
	assert.Equal(t, 3, scx.Dimension)
	assert.Equal(t, []string{"categorical_accuracy"}, scx.Metrics)
	assert.InDelta(t, 2.5, scx.Weight, 1e-12)
}

func TestLoadParamsMissing(t *testing.T) {
	_, err := LoadParams(filepath.Join("testdata", "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(p *Params)
		errStr string
	}{
		{"ok", func(p *Params) {}, ""},
		{"no units", func(p *Params) { p.LSTM.Units = 0 }, "LSTM.units"},
		{"short dense", func(p *Params) { p.Dense.Neurons = p.Dense.Neurons[:1] }, "dense.neurons"},
		{"no tasks", func(p *Params) { p.Predictions = PredictionParams{} }, "no tasks"},
		{"no dimension", func(p *Params) {
			out := OutputParams{}
			for k, v := range p.Output {
				if k != "scx-dimension" {
					out[k] = v
				}
			}
			p.Output = out
		}, "scx-dimension"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := loadFixture(t)
			c.modify(&p)

			err := p.Validate()
			if c.errStr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.errStr)
			}
		})
	}
}

func TestBuildNormalModel(t *testing.T) {
	x := New(loadFixture(t), 100)
	require.NoError(t, x.BuildModel(false))

	net := x.Model()
	require.NotNil(t, net)
	assert.False(t, x.IsSiamese())
	require.Len(t, net.Inputs(), 1)
	assert.Equal(t, MainInput, net.Inputs()[0].Name())

	outs := net.Outputs()
	require.Len(t, outs, 3)
	for i, task := range []string{"rp", "scx", "hsax"} {
		assert.Equal(t, task, outs[i].Name())
	}
	assert.Equal(t, 1+9+10, net.OutputSize())

	// bidirectional GRU with 10 units
	assert.Equal(t, []int{20}, net.Node("gru_0_bn").Dims())

	name := filepath.Join(t.TempDir(), "model_figure_normal")
	require.NoError(t, x.ExportVisualization(name))
	b, err := os.ReadFile(name + ".dot")
	require.NoError(t, err)
	assert.Contains(t, string(b), MainInput)
	assert.Contains(t, string(b), "digraph")
}

func TestBuildSiameseModel(t *testing.T) {
	x := New(loadFixture(t), 100)
	require.NoError(t, x.BuildModel(true))

	net := x.Model()
	require.NotNil(t, net)
	assert.True(t, x.IsSiamese())

	inputs := net.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, SiameseA, inputs[0].Name())
	assert.Equal(t, SiameseB, inputs[1].Name())

	a, b := net.Node("siamese/a/embedding"), net.Node("siamese/b/embedding")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.True(t, a.Shared())
	assert.Equal(t, a.SharesWith(), b.SharesWith())

	fwd := net.Node("siamese/b/bidirectional_gru_0/forward")
	require.NotNil(t, fwd)
	assert.Equal(t, net.Node("siamese/a/bidirectional_gru_0/forward").SharesWith(), fwd.SharesWith())

	name := filepath.Join(t.TempDir(), "model_figure_siamese")
	require.NoError(t, x.ExportVisualization(name))
	assert.FileExists(t, name+".dot")
}

func TestCompile(t *testing.T) {
	x := New(loadFixture(t), 100)
	assert.ErrorIs(t, x.Compile(), ErrNotBuilt)

	require.NoError(t, x.BuildModel(true))
	require.NoError(t, x.Compile())
	assert.True(t, x.IsCompiled())
	assert.InDelta(t, 0.001, x.LearningRate(), 1e-12)

	// rebuilding discards the compiled state
	require.NoError(t, x.BuildModel(false))
	assert.False(t, x.IsCompiled())
}

func TestCompileMomentum(t *testing.T) {
	p := loadFixture(t)
	p.Learning.Momentum = 0.9

	x := New(p, 20)
	require.NoError(t, x.BuildModel(false))
	err := x.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "momentum is only supported by sgd")

	p.Learning.Optimizer = "sgd"
	x = New(p, 20)
	require.NoError(t, x.BuildModel(false))
	require.NoError(t, x.Compile())

	p.Learning.Momentum = 1
	x = New(p, 20)
	require.NoError(t, x.BuildModel(false))
	assert.Error(t, x.Compile())
}

func TestCompileUnknownLoss(t *testing.T) {
	p := loadFixture(t)
	p.Output["rp-loss"] = "cosine"

	x := New(p, 20)
	require.NoError(t, x.BuildModel(false))
	assert.Error(t, x.Compile())
	assert.False(t, x.IsCompiled())
}

func TestMergeOptions(t *testing.T) {
	for _, merge := range []string{"add", "multiply", "average", "concatenate", "maximum"} {
		t.Run(merge, func(t *testing.T) {
			p := loadFixture(t)
			p.Siamese.MergeType = merge

			x := New(p, 100)
			require.NoError(t, x.BuildModel(true))
			require.NoError(t, x.Compile())
			assert.True(t, x.IsCompiled())
			assert.NotNil(t, x.Model().Node(merge))
		})
	}

	p := loadFixture(t)
	p.Siamese.MergeType = "subtract"
	err := New(p, 100).BuildModel(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merging operation not supported")
}

func TestConcatenateDoublesWidth(t *testing.T) {
	p := loadFixture(t)
	p.Siamese.MergeType = "concatenate"

	x := New(p, 30)
	require.NoError(t, x.BuildModel(true))
	assert.Equal(t, []int{40}, x.Model().Node("concatenate").Dims())
}

func TestRecurrentOptions(t *testing.T) {
	for _, kind := range []string{"LSTM", "GRU", "CuDNNLSTM", "CuDNNGRU"} {
		t.Run(kind, func(t *testing.T) {
			p := loadFixture(t)
			p.LSTM.Type = kind

			x := New(p, 100)
			require.NoError(t, x.BuildModel(true))
			require.NoError(t, x.Compile())
			assert.True(t, x.IsCompiled())
		})
	}

	p := loadFixture(t)
	p.LSTM.Type = "SimpleRNN"
	assert.Error(t, New(p, 100).BuildModel(true))

	p = loadFixture(t)
	p.LSTM.RecurrentActivation = "hard_sigmoid"
	assert.NoError(t, New(p, 100).BuildModel(true))

	p.LSTM.RecurrentActivation = "softmax"
	assert.Error(t, New(p, 100).BuildModel(true))
}

func TestStackedUnidirectional(t *testing.T) {
	p := loadFixture(t)
	p.LSTM.Type = "LSTM"
	p.LSTM.NLayers = 3
	p.LSTM.Bidirectional = false
	p.LSTM.BatchNorm = false

	x := New(p, 12)
	require.NoError(t, x.BuildModel(false))

	net := x.Model()
	assert.Equal(t, []int{12, 10}, net.Node("lstm_0").Dims())
	assert.Equal(t, []int{12, 10}, net.Node("lstm_1").Dims())
	assert.Equal(t, []int{10}, net.Node("lstm_2").Dims())
}

func TestInitRegularizer(t *testing.T) {
	r, err := InitRegularizer("l1", 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, r.Config()["l1"], 0.001)

	r, err = InitRegularizer("l2", 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, r.Config()["l2"], 0.001)

	r, err = InitRegularizer("l1l2", 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, r.Config()["l1"], 0.001)
	assert.InDelta(t, 0.1, r.Config()["l2"], 0.001)

	r, err = InitRegularizer("elastic_net", 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, r.Config()["l1"], 0.001)
	assert.InDelta(t, 0.05, r.Config()["l2"], 0.001)

	_, err = InitRegularizer("l3", 0.1)
	assert.ErrorIs(t, err, ErrUnknownRegularizer)

	r, err = InitRegularizer("", 0.1)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestPrintLayers(t *testing.T) {
	x := New(loadFixture(t), 10)

	var buf bytes.Buffer
	assert.ErrorIs(t, x.PrintLayers(&buf), ErrNotBuilt)

	require.NoError(t, x.BuildModel(true))
	require.NoError(t, x.PrintLayers(&buf))

	out := buf.String()
	assert.Contains(t, out, "rp")
	assert.Contains(t, out, "siamese")
	assert.Contains(t, out, "input_1")
	assert.Contains(t, out, "input_2")
	assert.Equal(t, 1, strings.Count(out, "\nsiamese "), "the tower is listed once")
	assert.Less(t, strings.Index(out, "input_2"), strings.Index(out, "\nsiamese "), "inputs are listed first")
	assert.NotContains(t, out, "siamese/b/")
}

func TestParamOverview(t *testing.T) {
	x := New(loadFixture(t), 10)
	require.NoError(t, x.BuildModel(true))

	var buf bytes.Buffer
	require.NoError(t, x.ParamOverview(&buf))

	out := buf.String()
	assert.Contains(t, out, "Total params:")
	assert.Contains(t, out, "Trainable params:")
	assert.Contains(t, out, "Non-trainable params:")
	assert.Contains(t, out, "siamese[0], siamese[1]")

	// the tower's layers add up to the same total as the network
	total := 0
	for _, l := range x.layers() {
		total += l.params
	}
	trainable, fixed := x.Model().ParamCount()
	assert.Equal(t, trainable+fixed, total)
}

func TestParamsToCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "params.csv")

	rows, err := ParamsToCSV(filepath.Join("testdata", "xirt_params.yaml"), out)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.FileExists(t, out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "param,value\n"))
	assert.Contains(t, string(b), "LSTM.units,10\n")
	assert.Contains(t, rows, ParamRow{"dense.neurons", "[30, 15, 5]"})
	assert.Contains(t, rows, ParamRow{"siamese.merge_type", "add"})
}

func TestParamsToCSVTOML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "params.csv")

	rows, err := ParamsToCSV(filepath.Join("testdata", "xirt_params.toml"), out)
	require.NoError(t, err)
	assert.Contains(t, rows, ParamRow{"learning.optimizer", "rmsprop"})
}

func TestOrdinal(t *testing.T) {
	for class := 0; class <= 4; class++ {
		v, err := EncodeOrdinal(class, 4)
		require.NoError(t, err)
		assert.Len(t, v, 4)
		assert.Equal(t, class, DecodeOrdinal(v))
	}

	_, err := EncodeOrdinal(5, 4)
	assert.Error(t, err)

	assert.Equal(t, 2, DecodeOrdinal([]float64{0.9, 0.7, 0.2, 0.8}))
	assert.Equal(t, 1, DecodeCategorical([]float64{0.1, 0.7, 0.2}))
	assert.Equal(t, -1, DecodeCategorical(nil))
}
