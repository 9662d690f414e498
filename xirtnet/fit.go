package xirtnet

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/initializers"
)

// ErrNotCompiled is returned by operations that require Compile to have succeeded.
var ErrNotCompiled = errors.New("model has not been compiled")

const defaultBatchSize = 32

// Sample is a single peptide, or crosslinked pair of peptides, with the expected output of each
// task. Peptides are sequences of token indices, as floats.
type Sample struct {
	Peptide1 []float64
	Peptide2 []float64
	Targets  map[string][]float64
}

// EpochLog is the record of a single epoch of training. ValLoss is NaN without validation data.
type EpochLog struct {
	Epoch        int
	Loss         float64
	ValLoss      float64
	LearningRate float64

	// validation results, keyed as "val_<task>_loss" or "val_<task>_<metric>"
	Metrics map[string]float64
}

// History is the record of a call to Fit.
type History struct {
	Epochs []EpochLog
}

type taskCost interface {
	xirt.CostFunction
	PartCosts(outs, targets []float64) map[string]float64
}

func (x *XiRTNet) inputs(s Sample) ([]float64, error) {
	if len(s.Peptide1) != x.InputDim {
		return nil, xirt.SizeMismatchError{Expected: x.InputDim, Got: len(s.Peptide1), What: "peptide 1"}
	}
	if !x.siamese {
		return s.Peptide1, nil
	}

	p2 := s.Peptide2
	if len(p2) == 0 && x.Siamese.SinglePredictions {
		p2 = s.Peptide1
	}
	if len(p2) != x.InputDim {
		return nil, xirt.SizeMismatchError{Expected: x.InputDim, Got: len(p2), What: "peptide 2"}
	}

	in := make([]float64, 0, 2*x.InputDim)
	return append(append(in, s.Peptide1...), p2...), nil
}

func (x *XiRTNet) targets(s Sample) ([]float64, error) {
	var ts []float64
	for i, task := range x.Tasks {
		t, ok := s.Targets[task]
		if !ok {
			return nil, errors.Errorf("no target for task %q", task)
		} else if len(t) != x.outs[i].Dimension {
			return nil, errors.Wrapf(xirt.SizeMismatchError{Expected: x.outs[i].Dimension, Got: len(t), What: "targets"}, "task %q", task)
		}

		ts = append(ts, t...)
	}

	return ts, nil
}

func (x *XiRTNet) data(samples []Sample) ([]xirt.Datum, error) {
	ds := make([]xirt.Datum, len(samples))
	for i, s := range samples {
		in, err := x.inputs(s)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		out, err := x.targets(s)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}

		ds[i] = xirt.Datum{Inputs: in, Outputs: out}
	}

	return ds, nil
}

// Fit trains the model for the configured number of epochs, shuffling the training samples each
// epoch. After each epoch the model is evaluated on val (which may be empty) and the callbacks are
// run in order; any of them may stop training early. Fit returns early with the context's error if
// it is cancelled.
func (x *XiRTNet) Fit(ctx context.Context, train, val []Sample, callbacks ...Callback) (*History, error) {
	if !x.compiled {
		return nil, errors.Wrap(ErrNotCompiled, "Can't fit")
	} else if len(train) == 0 {
		return nil, errors.Errorf("Can't fit, no training data")
	}

	trainData, err := x.data(train)
	if err != nil {
		return nil, errors.Wrap(err, "Can't fit, invalid training data")
	}
	valData, err := x.data(val)
	if err != nil {
		return nil, errors.Wrap(err, "Can't fit, invalid validation data")
	}

	epochs := x.Learning.Epochs
	if epochs < 1 {
		epochs = 1
	}
	batchSize := x.Learning.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	size := len(trainData)
	var order []int
	supplier := xirt.Supplier(
		func(i int) (xirt.Datum, error) {
			if i%size == 0 {
				order = initializers.Rand().Perm(size)
			}
			return trainData[order[i%size]], nil
		},
		func(i int) bool { return (i+1)%batchSize == 0 || (i+1)%size == 0 },
		func(i int) bool { return true },
	)

	hist := new(History)
	var stop bool

	update := func(r xirt.Result) error {
		l := EpochLog{
			Epoch:        r.Iteration / size,
			Loss:         r.Cost,
			ValLoss:      math.NaN(),
			LearningRate: x.LearningRate(),
			Metrics:      make(map[string]float64),
		}

		if len(valData) != 0 {
			res, err := x.evaluate(valData)
			if err != nil {
				return errors.Wrap(err, "validation failed")
			}

			l.ValLoss = res["loss"]
			for k, v := range res {
				if k != "loss" {
					l.Metrics["val_"+k] = v
				}
			}
		}

		hist.Epochs = append(hist.Epochs, l)

		for _, cb := range callbacks {
			s, err := cb.OnEpochEnd(x, l)
			if err != nil {
				return errors.Wrapf(err, "callback %s", cb.Name())
			}
			stop = stop || s
		}

		return nil
	}

	x.logger.Debug().
		Int("samples", size).
		Int("validation", len(valData)).
		Int("epochs", epochs).
		Int("batch_size", batchSize).
		Msg("training started")

	err = x.model.Train(xirt.TrainArgs{
		TrainData:  supplier,
		SendStatus: func(i int) bool { return i%size == 0 },
		RunCondition: func(i int) bool {
			return !stop && i < epochs*size && ctx.Err() == nil
		},
		Update: update,
	})
	if err != nil {
		return hist, errors.Wrap(err, "Training failed")
	} else if err := ctx.Err(); err != nil {
		return hist, err
	}

	return hist, nil
}

// Evaluate returns the average loss of the model over the samples, under "loss", along with the
// loss of each task ("<task>_loss") and each of its metrics ("<task>_<metric>").
func (x *XiRTNet) Evaluate(samples []Sample) (map[string]float64, error) {
	if !x.compiled {
		return nil, errors.Wrap(ErrNotCompiled, "Can't evaluate")
	} else if len(samples) == 0 {
		return nil, errors.Errorf("Can't evaluate, no samples")
	}

	data, err := x.data(samples)
	if err != nil {
		return nil, errors.Wrap(err, "Can't evaluate")
	}

	return x.evaluate(data)
}

func (x *XiRTNet) evaluate(data []xirt.Datum) (map[string]float64, error) {
	net := x.model
	cost, ok := net.Cost().(taskCost)
	if !ok {
		return nil, errors.Errorf("cost function %s does not give the cost of each task", net.Cost().TypeString())
	}

	wasTraining := net.Training()
	net.SetTraining(false)
	defer net.SetTraining(wasTraining)

	res := make(map[string]float64)
	for i, d := range data {
		outs, err := net.GetOutputs(d.Inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}

		res["loss"] += cost.Cost(outs, d.Outputs)
		for task, c := range cost.PartCosts(outs, d.Outputs) {
			res[task+"_loss"] += c
		}

		pos := 0
		for t, task := range x.Tasks {
			dim := x.outs[t].Dimension
			o, target := outs[pos:pos+dim], d.Outputs[pos:pos+dim]
			for _, m := range x.metrics[t] {
				res[task+"_"+m.name] += m.f(o, target)
			}
			pos += dim
		}
	}

	for k := range res {
		res[k] /= float64(len(data))
	}
	return res, nil
}

// Predict returns the outputs of the model for each sample, by task. Targets are ignored. For
// siamese models with single predictions enabled, a sample without a second peptide is paired with
// itself.
func (x *XiRTNet) Predict(samples []Sample) (map[string][][]float64, error) {
	if x.model == nil {
		return nil, errors.Wrap(ErrNotBuilt, "Can't predict")
	}

	net := x.model
	wasTraining := net.Training()
	net.SetTraining(false)
	defer net.SetTraining(wasTraining)

	preds := make(map[string][][]float64, len(x.Tasks))
	for i, s := range samples {
		in, err := x.inputs(s)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't predict sample %d", i)
		}

		if _, err := net.GetOutputs(in); err != nil {
			return nil, errors.Wrapf(err, "Can't predict sample %d", i)
		}

		for _, task := range x.Tasks {
			vs := append([]float64(nil), net.Node(task).Values()...)
			preds[task] = append(preds[task], vs)
		}
	}

	return preds, nil
}
