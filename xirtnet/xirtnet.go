// Package xirtnet builds, trains and evaluates the xiRT network: a multi-task network predicting
// the retention behaviour of peptides and crosslinked peptide pairs.
//
// The base network embeds the amino acid sequence, optionally convolves it, and runs it through
// (possibly bidirectional, possibly stacked) recurrent layers. Each task then has its own stack
// of dense layers and its own output. For crosslinked peptides, the base network is applied to
// both peptides with shared weights and the two encodings are merged before the task layers.
package xirtnet

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/hyperparams"
	"github.com/xirtnet/xirt/metrics"
)

// Input node names
const (
	MainInput   = "main_input"
	SiameseA    = "input_1"
	SiameseB    = "input_2"
	SiameseName = "siamese"
)

// XiRTNet holds the configuration of a network and, once built, the network itself.
type XiRTNet struct {
	LSTM      RecurrentParams
	Conv      ConvParams
	Dense     DenseParams
	Embedding EmbeddingParams
	Learning  LearningParams
	Output    OutputParams
	Siamese   SiameseParams
	Callbacks CallbackParams
	Tasks     []string

	InputDim int

	params Params
	model  *xirt.Network
	logger zerolog.Logger

	siamese  bool
	compiled bool

	lr      *hyperparams.Plateau
	decay   *hyperparams.Stepper
	outs    []TaskOutput
	metrics [][]namedMetric
}

type namedMetric struct {
	name string
	f    metrics.Func
}

// New returns an XiRTNet for the given Params, with sequences of length inputDim. The model is not
// built until BuildModel is called.
func New(params Params, inputDim int) *XiRTNet {
	return &XiRTNet{
		LSTM:      params.LSTM,
		Conv:      params.Conv,
		Dense:     params.Dense,
		Embedding: params.Embedding,
		Learning:  params.Learning,
		Output:    params.Output,
		Siamese:   params.Siamese,
		Callbacks: params.Callbacks,
		Tasks:     params.Tasks(),
		InputDim:  inputDim,
		params:    params,
		logger:    log.Logger.With().Str("component", "xirtnet").Logger(),
	}
}

// Model returns the built network, or nil if BuildModel has not succeeded.
func (x *XiRTNet) Model() *xirt.Network {
	return x.model
}

// Params returns the Params the XiRTNet was created with.
func (x *XiRTNet) Params() Params {
	return x.params
}

// IsSiamese returns whether the built model has two inputs.
func (x *XiRTNet) IsSiamese() bool {
	return x.siamese
}

// IsCompiled returns whether Compile has succeeded since the model was last built.
func (x *XiRTNet) IsCompiled() bool {
	return x.compiled
}

// SetLogger replaces the logger used for build and training messages.
func (x *XiRTNet) SetLogger(l zerolog.Logger) *XiRTNet {
	x.logger = l
	return x
}

// LearningRate returns the current learning rate. It is zero before Compile.
func (x *XiRTNet) LearningRate() float64 {
	if x.lr == nil {
		return 0
	}

	return x.lr.Value(0)
}
