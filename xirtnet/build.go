package xirtnet

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/initializers"
	"github.com/xirtnet/xirt/operators"
	"github.com/xirtnet/xirt/penalties"
)

// ErrUnknownRegularizer matches the error given by InitRegularizer for unknown names.
var ErrUnknownRegularizer = penalties.ErrUnknown

// ErrNotBuilt is returned by operations that require BuildModel to have succeeded.
var ErrNotBuilt = errors.New("model has not been built")

var mergeOps = map[string]func() xirt.Operator{
	"add":         func() xirt.Operator { return operators.Add() },
	"multiply":    func() xirt.Operator { return operators.Mult() },
	"average":     func() xirt.Operator { return operators.Average() },
	"concatenate": func() xirt.Operator { return operators.Concat() },
	"maximum":     func() xirt.Operator { return operators.Maximum() },
}

// a layer of the base network. Calling it again with a different prefix gives a new set of Nodes
// sharing the same weights.
type layer func(net *xirt.Network, prefix string, in *xirt.Node) *xirt.Node

func (x *XiRTNet) currentParams() Params {
	return Params{
		LSTM:        x.LSTM,
		Conv:        x.Conv,
		Dense:       x.Dense,
		Embedding:   x.Embedding,
		Learning:    x.Learning,
		Output:      x.Output,
		Siamese:     x.Siamese,
		Callbacks:   x.Callbacks,
		Predictions: x.params.Predictions,
	}
}

// BuildModel builds the network. With siamese set, the base network is applied to each of two
// inputs ("input_1" and "input_2") with shared weights, and the results are merged by the
// configured merge type. Otherwise there is a single input, "main_input".
//
// The output of each task is the Node named after it. Any previously built model is discarded.
func (x *XiRTNet) BuildModel(siamese bool) error {
	x.model, x.compiled = nil, false

	if err := x.currentParams().Validate(); err != nil {
		return errors.Wrap(err, "Can't build model, invalid params")
	} else if x.InputDim < 1 {
		return errors.Errorf("Can't build model, input dimension must be >= 1 (%d)", x.InputDim)
	}

	if x.Learning.Seed != 0 {
		initializers.Seed(x.Learning.Seed)
	}

	layers, err := x.baseNetwork()
	if err != nil {
		return errors.Wrap(err, "Can't build model")
	}
	base := func(net *xirt.Network, prefix string, in *xirt.Node) *xirt.Node {
		for _, l := range layers {
			in = l(net, prefix, in)
		}
		return in
	}

	net := xirt.New("xiRTNET").SetLogger(x.logger)

	var encoded *xirt.Node
	if siamese {
		mergeType := strings.ToLower(x.Siamese.MergeType)
		merge, ok := mergeOps[mergeType]
		if !ok {
			return errors.Errorf("merging operation not supported: %q", x.Siamese.MergeType)
		}

		a := base(net, SiameseName+"/a/", net.AddInput(SiameseA, []int{x.InputDim}))
		b := base(net, SiameseName+"/b/", net.AddInput(SiameseB, []int{x.InputDim}))
		encoded = net.Add(mergeType, merge(), a, b)
	} else {
		encoded = base(net, "", net.AddInput(MainInput, []int{x.InputDim}))
	}

	outs := make([]*xirt.Node, len(x.Tasks))
	for i, task := range x.Tasks {
		if outs[i], err = x.taskHead(net, task, encoded); err != nil {
			return errors.Wrapf(err, "Can't build model, task %q", task)
		}
	}

	if err := net.Error(); err != nil {
		return errors.Wrap(err, "Can't build model")
	}
	if err := net.SetOutputs(outs...); err != nil {
		return errors.Wrap(err, "Can't build model")
	}

	x.model = net
	x.siamese = siamese

	trainable, fixed := net.ParamCount()
	x.logger.Info().
		Bool("siamese", siamese).
		Strs("tasks", x.Tasks).
		Int("trainable", trainable).
		Int("non_trainable", fixed).
		Msg("model built")

	return nil
}

// InitRegularizer returns the regularizer with the given name ("l1", "l2", "l1l2" or "elastic_net")
// and factor.
// An empty name gives no regularizer and no error. Unknown names give an error matching
// ErrUnknownRegularizer.
func InitRegularizer(name string, value float64) (penalties.Regularizer, error) {
	if name == "" {
		return nil, nil
	}

	r, err := penalties.Get(name, value)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't create regularizer")
	}
	return r, nil
}

// baseNetwork returns the layers shared by every task: embedding, optional convolution, and the
// recurrent layers.
func (x *XiRTNet) baseNetwork() ([]layer, error) {
	var layers []layer

	vocab := x.Embedding.Vocabulary
	if vocab < 1 {
		vocab = x.InputDim
	}
	initName := x.Embedding.Initializer
	if initName == "" {
		initName = "he_normal"
	}
	embInit, err := initializers.Get(initName)
	if err != nil {
		return nil, errors.Wrap(err, "embedding")
	}

	emb := operators.Embedding(vocab, x.Embedding.Length)
	layers = append(layers, func(net *xirt.Network, prefix string, in *xirt.Node) *xirt.Node {
		return net.Add(prefix+"embedding", emb, in).Init(embInit)
	})

	if x.Conv.Use {
		l, err := x.convLayer()
		if err != nil {
			return nil, errors.Wrap(err, "conv")
		}
		layers = append(layers, l)
	}

	kernelPen, err := InitRegularizer(x.LSTM.KernelRegularization, x.LSTM.KernelRegularizerValue)
	if err != nil {
		return nil, errors.Wrap(err, "LSTM kernel")
	}
	actPen, err := InitRegularizer(x.LSTM.ActivityRegularization, x.LSTM.ActivityRegularizerValue)
	if err != nil {
		return nil, errors.Wrap(err, "LSTM activity")
	}

	actName := x.LSTM.Activation
	if actName == "" {
		actName = "tanh"
	}
	recActName := x.LSTM.RecurrentActivation
	if recActName == "" {
		recActName = "sigmoid"
	}

	kind := strings.TrimPrefix(strings.ToLower(x.LSTM.Type), "cudnn")
	for i := 0; i < x.LSTM.NLayers; i++ {
		act, err := operators.ElementwiseActivation(actName)
		if err != nil {
			return nil, errors.Wrap(err, "LSTM")
		}
		recAct, err := operators.ElementwiseActivation(recActName)
		if err != nil {
			return nil, errors.Wrap(err, "LSTM recurrent activation")
		}

		fwd, err := operators.Recurrent(x.LSTM.Type, x.LSTM.Units)
		if err != nil {
			return nil, errors.Wrap(err, "LSTM")
		}
		fwd.Activation(act).RecurrentActivation(recAct).ReturnSequences(i < x.LSTM.NLayers-1)
		bwd := fwd.Backward()
		bn := operators.BatchNorm()

		name := fmt.Sprintf("%s_%d", kind, i)
		bidirectional, batchNorm := x.LSTM.Bidirectional, x.LSTM.BatchNorm

		layers = append(layers, func(net *xirt.Network, prefix string, in *xirt.Node) *xirt.Node {
			var out *xirt.Node
			if bidirectional {
				out = operators.Bidirectional(net, prefix+"bidirectional_"+name, fwd, bwd, in)
				if out != nil {
					out.Input(0).Penalize(kernelPen)
					out.Input(1).Penalize(kernelPen)
				}
			} else {
				out = net.Add(prefix+name, fwd, in).Penalize(kernelPen)
			}

			out.ActivityPenalty(actPen)
			if batchNorm {
				out = net.Add(prefix+name+"_bn", bn, out)
			}
			return out
		})
	}

	return layers, nil
}

func (x *XiRTNet) convLayer() (layer, error) {
	padding := x.Conv.Padding
	if padding == "" {
		padding = "valid"
	}

	conv, err := operators.Conv1D(x.Conv.Filters, x.Conv.KernelSize).Pad(padding)
	if err != nil {
		return nil, err
	}

	act, err := operators.Activation(x.Conv.Activation)
	if err != nil {
		return nil, err
	}

	poolSize := x.Conv.PoolSize
	pool := operators.MaxPool1D(poolSize)

	return func(net *xirt.Network, prefix string, in *xirt.Node) *xirt.Node {
		out := net.Add(prefix+"conv1d", conv, in)
		out = net.Add(prefix+"conv1d_act", act, out)
		if poolSize > 1 {
			out = net.Add(prefix+"max_pooling1d", pool, out)
		}
		return out
	}, nil
}

// taskHead adds the dense layers and the output of a single task, returning the output Node.
func (x *XiRTNet) taskHead(net *xirt.Network, task string, in *xirt.Node) (*xirt.Node, error) {
	to, err := x.Output.Task(task)
	if err != nil {
		return nil, err
	}

	outAct, err := operators.Activation(to.Activation)
	if err != nil {
		return nil, err
	}

	n := in
	d := x.Dense
	for i := 0; i < d.NLayers; i++ {
		act, err := operators.Activation(d.Activation[i])
		if err != nil {
			return nil, errors.Wrapf(err, "dense layer %d", i)
		}

		var pen xirt.Penalty
		if d.Regularization[i] {
			r, err := InitRegularizer(d.KernelRegularizer[i], d.RegularizerValue[i])
			if err != nil {
				return nil, errors.Wrapf(err, "dense layer %d", i)
			} else if r != nil {
				pen = r
			}
		}

		name := fmt.Sprintf("%s_dense_%d", task, i)
		n = net.Add(name, operators.Dense(d.Neurons[i]), n).Penalize(pen)
		n = net.Add(name+"_act", act, n)

		if d.BatchNorm[i] {
			n = net.Add(fmt.Sprintf("%s_bn_%d", task, i), operators.BatchNorm(), n)
		}
		if d.Dropout[i] > 0 {
			n = net.Add(fmt.Sprintf("%s_dropout_%d", task, i), operators.Dropout(d.Dropout[i]), n)
		}
	}

	n = net.Add(task+"_output", operators.Dense(to.Dimension), n)
	return net.Add(task, outAct, n), nil
}
