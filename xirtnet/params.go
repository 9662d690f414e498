package xirtnet

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Params is the full configuration of an XiRTNet, as read from a YAML or TOML file. Each section is
// kept as-is by New.
type Params struct {
	LSTM        RecurrentParams  `yaml:"LSTM" toml:"LSTM"`
	Conv        ConvParams       `yaml:"conv" toml:"conv"`
	Dense       DenseParams      `yaml:"dense" toml:"dense"`
	Embedding   EmbeddingParams  `yaml:"embedding" toml:"embedding"`
	Learning    LearningParams   `yaml:"learning" toml:"learning"`
	Output      OutputParams     `yaml:"output" toml:"output"`
	Siamese     SiameseParams    `yaml:"siamese" toml:"siamese"`
	Callbacks   CallbackParams   `yaml:"callbacks" toml:"callbacks"`
	Predictions PredictionParams `yaml:"predictions" toml:"predictions"`
}

// RecurrentParams configures the recurrent layers of the base network.
type RecurrentParams struct {
	Type          string `yaml:"type" toml:"type"`
	Units         int    `yaml:"units" toml:"units"`
	Activation    string `yaml:"activation" toml:"activation"`
	Bidirectional bool   `yaml:"bidirectional" toml:"bidirectional"`
	NLayers       int    `yaml:"nlayers" toml:"nlayers"`
	BatchNorm     bool   `yaml:"lstm_bn" toml:"lstm_bn"`

	// RecurrentActivation is the activation of the gates, "sigmoid" if empty
	RecurrentActivation string `yaml:"recurrent_activation" toml:"recurrent_activation"`

	KernelRegularization     string  `yaml:"kernel_regularization" toml:"kernel_regularization"`
	KernelRegularizerValue   float64 `yaml:"kernelregularizer_value" toml:"kernelregularizer_value"`
	ActivityRegularization   string  `yaml:"activity_regularization" toml:"activity_regularization"`
	ActivityRegularizerValue float64 `yaml:"activityregularizer_value" toml:"activityregularizer_value"`
}

// ConvParams configures the optional 1D convolution between the embedding and the recurrent
// layers.
type ConvParams struct {
	Use        bool   `yaml:"use" toml:"use"`
	Filters    int    `yaml:"filters" toml:"filters"`
	KernelSize int    `yaml:"kernel_size" toml:"kernel_size"`
	Activation string `yaml:"activation" toml:"activation"`
	Padding    string `yaml:"padding" toml:"padding"`
	PoolSize   int    `yaml:"pool_size" toml:"pool_size"`
}

// DenseParams configures the dense layers of each task. Every slice has one entry per layer.
type DenseParams struct {
	NLayers           int       `yaml:"nlayers" toml:"nlayers"`
	Neurons           []int     `yaml:"neurons" toml:"neurons"`
	Activation        []string  `yaml:"activation" toml:"activation"`
	Dropout           []float64 `yaml:"dropout" toml:"dropout"`
	BatchNorm         []bool    `yaml:"dense_bn" toml:"dense_bn"`
	Regularization    []bool    `yaml:"regularization" toml:"regularization"`
	KernelRegularizer []string  `yaml:"kernel_regularizer" toml:"kernel_regularizer"`
	RegularizerValue  []float64 `yaml:"regularizer_value" toml:"regularizer_value"`
}

// EmbeddingParams configures the embedding layer. Length is the size of each embedded vector; a
// zero Vocabulary defaults to the input dimension.
type EmbeddingParams struct {
	Length      int    `yaml:"length" toml:"length"`
	Vocabulary  int    `yaml:"vocabulary" toml:"vocabulary"`
	Initializer string `yaml:"initializer" toml:"initializer"`
}

// LearningParams configures the optimizer and the training loop. Momentum only applies to "sgd".
// With DecayEpochs set, the learning rate is multiplied by DecayFactor at the start of each of
// those epochs.
type LearningParams struct {
	LearningRate float64 `yaml:"learningrate" toml:"learningrate"`
	BatchSize    int     `yaml:"batch_size" toml:"batch_size"`
	Epochs       int     `yaml:"epochs" toml:"epochs"`
	Verbose      int     `yaml:"verbose" toml:"verbose"`
	Optimizer    string  `yaml:"optimizer" toml:"optimizer"`
	Momentum     float64 `yaml:"momentum" toml:"momentum"`
	Seed         int64   `yaml:"seed" toml:"seed"`

	DecayEpochs []int   `yaml:"decay_epochs" toml:"decay_epochs"`
	DecayFactor float64 `yaml:"decay_factor" toml:"decay_factor"`
}

type SiameseParams struct {
	Use               bool   `yaml:"use" toml:"use"`
	MergeType         string `yaml:"merge_type" toml:"merge_type"`
	SinglePredictions bool   `yaml:"single_predictions" toml:"single_predictions"`
}

type CallbackParams struct {
	CallbackPath          string  `yaml:"callback_path" toml:"callback_path"`
	CheckPoint            bool    `yaml:"check_point" toml:"check_point"`
	LogCSV                bool    `yaml:"log_csv" toml:"log_csv"`
	EarlyStopping         bool    `yaml:"early_stopping" toml:"early_stopping"`
	EarlyStoppingPatience int     `yaml:"early_stopping_patience" toml:"early_stopping_patience"`
	ReduceLR              bool    `yaml:"reduce_lr" toml:"reduce_lr"`
	ReduceLRFactor        float64 `yaml:"reduce_lr_factor" toml:"reduce_lr_factor"`
	ReduceLRPatience      int     `yaml:"reduce_lr_patience" toml:"reduce_lr_patience"`
	TensorBoard           bool    `yaml:"tensor_board" toml:"tensor_board"`
	ProgressBar           bool    `yaml:"progressbar" toml:"progressbar"`
}

// PredictionParams names the tasks: Continues are regression tasks, Fractions are fractionation
// (classification) tasks.
type PredictionParams struct {
	Continues []string `yaml:"continues" toml:"continues"`
	Fractions []string `yaml:"fractions" toml:"fractions"`
}

// OutputParams holds the per-task output settings, with keys of the form "<task>-<setting>", such
// as "rp-dimension" or "scx-loss".
type OutputParams map[string]interface{}

// TaskOutput is the typed form of the output settings for a single task.
type TaskOutput struct {
	Dimension  int
	Activation string
	Loss       string
	Metrics    []string
	Weight     float64
	Column     string
}

// LoadParams reads Params from a file. Files ending in ".toml" are parsed as TOML, and everything
// else as YAML.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, errors.Wrapf(err, "Failed to read params file %s", path)
	}

	var p Params
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &p); err != nil {
			return Params{}, errors.Wrapf(err, "Failed to parse params file %s", path)
		}
	} else {
		if p, err = ParseParams(data); err != nil {
			return Params{}, errors.Wrapf(err, "Failed to parse params file %s", path)
		}
	}

	return p, nil
}

// ParseParams parses YAML-encoded Params.
func ParseParams(data []byte) (Params, error) {
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, err
	}

	return p, nil
}

// Tasks returns the lower-cased names of every task, continuous tasks first.
func (p Params) Tasks() []string {
	tasks := make([]string, 0, len(p.Predictions.Continues)+len(p.Predictions.Fractions))
	for _, t := range p.Predictions.Continues {
		tasks = append(tasks, strings.ToLower(t))
	}
	for _, t := range p.Predictions.Fractions {
		tasks = append(tasks, strings.ToLower(t))
	}

	return tasks
}

// Validate checks that the Params are complete enough to build a network.
func (p Params) Validate() error {
	if p.LSTM.NLayers < 1 {
		return errors.Errorf("LSTM.nlayers must be >= 1 (%d)", p.LSTM.NLayers)
	} else if p.LSTM.Units < 1 {
		return errors.Errorf("LSTM.units must be >= 1 (%d)", p.LSTM.Units)
	} else if p.Embedding.Length < 1 {
		return errors.Errorf("embedding.length must be >= 1 (%d)", p.Embedding.Length)
	}

	if p.Conv.Use && (p.Conv.Filters < 1 || p.Conv.KernelSize < 1) {
		return errors.Errorf("conv.filters and conv.kernel_size must be >= 1 (%d, %d)", p.Conv.Filters, p.Conv.KernelSize)
	}

	d := p.Dense
	if d.NLayers < 0 {
		return errors.Errorf("dense.nlayers must be >= 0 (%d)", d.NLayers)
	}
	lengths := map[string]int{
		"neurons":        len(d.Neurons),
		"activation":     len(d.Activation),
		"dropout":        len(d.Dropout),
		"dense_bn":       len(d.BatchNorm),
		"regularization": len(d.Regularization),
	}
	for name, l := range lengths {
		if l < d.NLayers {
			return errors.Errorf("dense.%s has %d entries, expected %d", name, l, d.NLayers)
		}
	}
	for i := 0; i < d.NLayers; i++ {
		if d.Neurons[i] < 1 {
			return errors.Errorf("dense.neurons[%d] must be >= 1 (%d)", i, d.Neurons[i])
		}
		if d.Regularization[i] && (len(d.KernelRegularizer) <= i || len(d.RegularizerValue) <= i) {
			return errors.Errorf("dense layer %d is regularized but has no kernel_regularizer or regularizer_value", i)
		}
	}

	for i, e := range p.Learning.DecayEpochs {
		if e < 1 || (i > 0 && e <= p.Learning.DecayEpochs[i-1]) {
			return errors.Errorf("learning.decay_epochs must be increasing and >= 1 (%v)", p.Learning.DecayEpochs)
		}
	}

	tasks := p.Tasks()
	if len(tasks) == 0 {
		return errors.Errorf("no tasks given in predictions")
	}
	for _, t := range tasks {
		if _, err := p.Output.Task(t); err != nil {
			return err
		}
	}

	return nil
}

// Task returns the output settings of the given task. "<task>-dimension" is required; the loss
// defaults to "mse", the activation to "linear" and the weight to 1.
func (o OutputParams) Task(task string) (TaskOutput, error) {
	out := TaskOutput{Activation: "linear", Loss: "mse", Weight: 1}

	dim, ok := o[task+"-dimension"]
	if !ok {
		return TaskOutput{}, errors.Errorf("output has no %s-dimension", task)
	}
	d, ok := toFloat(dim)
	if !ok || d < 1 {
		return TaskOutput{}, errors.Errorf("output %s-dimension is invalid (%v)", task, dim)
	}
	out.Dimension = int(d)

	if v, ok := o[task+"-activation"].(string); ok {
		out.Activation = v
	}
	if v, ok := o[task+"-loss"].(string); ok {
		out.Loss = v
	}
	if v, ok := o[task+"-column"].(string); ok {
		out.Column = v
	}
	if v, ok := o[task+"-weight"]; ok {
		w, ok := toFloat(v)
		if !ok {
			return TaskOutput{}, errors.Errorf("output %s-weight is invalid (%v)", task, v)
		}
		out.Weight = w
	}

	switch m := o[task+"-metrics"].(type) {
	case string:
		out.Metrics = []string{m}
	case []interface{}:
		for _, v := range m {
			if s, ok := v.(string); ok {
				out.Metrics = append(out.Metrics, s)
			}
		}
	case []string:
		out.Metrics = append(out.Metrics, m...)
	}

	return out, nil
}

// YAML decodes numbers as int or float64 and TOML as int64 or float64
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}
