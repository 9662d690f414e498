package xirtnet

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/costfuncs"
	"github.com/xirtnet/xirt/hyperparams"
	"github.com/xirtnet/xirt/metrics"
	"github.com/xirtnet/xirt/optimizers"
)

const (
	defaultOptimizer    = "adam"
	defaultLearningRate = 0.001

	defaultReduceFactor   = 0.1
	defaultReducePatience = 10

	defaultDecayFactor = 0.1
)

// Compile prepares the built model for training: every set of weights gets a new optimizer of the
// configured type, the loss of each task is combined by its weight, and the metrics of each task
// are looked up. BuildModel must be called first.
func (x *XiRTNet) Compile() error {
	if x.model == nil {
		return errors.Wrap(ErrNotBuilt, "Can't compile")
	}

	optName := x.Learning.Optimizer
	if optName == "" {
		optName = defaultOptimizer
	}
	newOpt, err := optimizers.Get(optName)
	if err != nil {
		return errors.Wrap(err, "Can't compile")
	}
	if m := x.Learning.Momentum; m != 0 {
		if !strings.EqualFold(optName, "sgd") {
			return errors.Errorf("Can't compile, momentum is only supported by sgd, not %q", optName)
		} else if m < 0 || m >= 1 {
			return errors.Errorf("Can't compile, momentum must be in [0, 1) (%v)", m)
		}
		newOpt = func() xirt.Optimizer { return optimizers.SGD().Momentum(m) }
	}

	lr := x.Learning.LearningRate
	if lr <= 0 {
		lr = defaultLearningRate
	}
	factor := x.Callbacks.ReduceLRFactor
	if factor <= 0 || factor >= 1 {
		factor = defaultReduceFactor
	}
	patience := x.Callbacks.ReduceLRPatience
	if patience < 1 {
		patience = defaultReducePatience
	}

	parts := make([]costfuncs.Part, len(x.Tasks))
	outs := make([]TaskOutput, len(x.Tasks))
	ms := make([][]namedMetric, len(x.Tasks))
	for i, task := range x.Tasks {
		if outs[i], err = x.Output.Task(task); err != nil {
			return errors.Wrap(err, "Can't compile")
		}

		cf, err := costfuncs.Get(outs[i].Loss)
		if err != nil {
			return errors.Wrapf(err, "Can't compile, task %q", task)
		}
		parts[i] = costfuncs.Part{Name: task, Size: outs[i].Dimension, Weight: outs[i].Weight, Cost: cf}

		for _, name := range outs[i].Metrics {
			f, err := metrics.Get(name)
			if err != nil {
				return errors.Wrapf(err, "Can't compile, task %q", task)
			}
			ms[i] = append(ms[i], namedMetric{name, f})
		}
	}

	cost, err := costfuncs.Split(parts...)
	if err != nil {
		return errors.Wrap(err, "Can't compile")
	}

	x.lr = hyperparams.NewPlateau(lr, factor, patience, 0)
	x.decay = nil
	if len(x.Learning.DecayEpochs) != 0 {
		decayFactor := x.Learning.DecayFactor
		if decayFactor <= 0 || decayFactor >= 1 {
			decayFactor = defaultDecayFactor
		}

		// relative to the learning rate before the first decay
		scale := 1.0
		x.decay = hyperparams.Step(scale)
		for _, e := range x.Learning.DecayEpochs {
			scale *= decayFactor
			x.decay.Add(e, scale)
		}
	}
	x.model.AddHP("learning-rate", x.lr)
	if err := x.model.SetOptimizer(newOpt); err != nil {
		return errors.Wrap(err, "Can't compile")
	}
	if err := x.model.SetCost(cost); err != nil {
		return errors.Wrap(err, "Can't compile")
	}

	x.outs = outs
	x.metrics = ms
	x.compiled = true

	x.logger.Debug().
		Str("optimizer", optName).
		Float64("learning_rate", lr).
		Msg("model compiled")

	return nil
}
