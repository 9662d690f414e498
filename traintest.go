package xirt

import (
	"github.com/pkg/errors"
)

// Datum is a simple wrapper used to send training samples to the Network
type Datum struct {
	// Inputs is the input of the network. It must have the same size as that of the network's
	// inputs.
	Inputs []float64

	// Outputs is the expected output of the network, given the input.
	Outputs []float64
}

// Fits indicates whether or not a given Datum's dimensions match those of the Network, allowing it
// to be used for training or testing.
func (d Datum) Fits(net *Network) bool {
	return len(d.Inputs) == net.InputSize() && len(d.Outputs) == net.OutputSize()
}

// DataSupplier is the primary method of providing datasets to the Network, either for training or
// testing.
type DataSupplier interface {
	// Get returns the next piece of data, given the current iteration.
	Get(int) (Datum, error)

	// BatchEnded returns whether or not the most recent batch has ended, given the current
	// iteration. To not use batching, BatchEnded should always return true (effective mini-batch
	// size of 1).
	//
	// BatchEnded will be called after the last Datum in the batch has been retrieved. It will not
	// be called if the DataSupplier is being used for testing.
	BatchEnded(int) bool

	// DoneTesting indicates whether or not the testing process has finished. This will only be
	// called if the DataSupplier is actually used for providing testing data.
	//
	// DoneTesting is called at the same point as BatchEnded would be.
	DoneTesting(int) bool
}

// A wrapper for sending back the progress of the training or testing
type Result struct {
	// The iteration the result is being sent before
	Iteration int

	// Average cost, from the Network's CostFunction
	Cost float64

	// The fraction correct, as per IsCorrect() from TrainArgs
	// 0 → 1
	Correct float64

	// The result is either from a test or a status update
	IsTest bool
}

// TrainArgs holds the optional arguments to Train.
type TrainArgs struct {
	TrainData DataSupplier

	// TestData is the source of cross-validation data while training. This can be nil if
	// ShouldTest is also nil
	TestData DataSupplier

	// ShouldTest indicates whether or not testing should be done before the current iteration.
	ShouldTest func(int) bool

	// SendStatus indicates whether or not to send back general information about the status of
	// the training since the last time 'true' was returned. SendStatus can be left nil to represent
	// an unconditional false.
	//
	// 'true' will be ignored on iteration 0.
	SendStatus func(int) bool

	// RunCondition will be called at each successive iteration to determine if training should
	// continue. Training will stop if 'false' is returned.
	RunCondition func(int) bool

	// IsCorrect returns whether or not the network outputs are correct, given the target outputs.
	// In order, it is given: outputs; targets.
	//
	// The length of both provided slices is guaranteed to be equal.
	IsCorrect func([]float64, []float64) bool

	// Update is how testing and status updates are returned. If both ShouldTest and SendStatus are
	// nil, then Update can also be left nil. An error returned by Update stops training.
	Update func(Result) error
}

// Train trains the Network with the provided arguments. The Network is in training mode for the
// duration, and any changes to weights that are still waiting at the end are applied.
func (net *Network) Train(args TrainArgs) error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	} else if net.cf == nil {
		return ErrNoCostFunction
	}

	// handle error cases and set defaults
	{
		if args.Update == nil {
			args.Update = func(r Result) error { return nil }
		}

		if args.TrainData == nil {
			return errors.Errorf("TrainData is nil")
		}

		if args.TestData == nil {
			if args.ShouldTest != nil {
				return errors.Errorf("TestData is nil but ShouldTest is not")
			}

			args.ShouldTest = func(i int) bool { return false }
		} else if args.ShouldTest == nil {
			args.ShouldTest = func(i int) bool { return false }
		}

		if args.SendStatus == nil {
			args.SendStatus = func(i int) bool { return false }
		}

		if args.RunCondition == nil {
			return errors.Errorf("RunCondition is nil")
		}

		if args.IsCorrect == nil {
			args.IsCorrect = func(a, b []float64) bool { return false }
		}
	}

	wasTraining := net.training
	defer net.SetTraining(wasTraining)

	net.iter = 0

	var statusCost, statusCorrect float64
	var statusSize int

	for {
		if args.SendStatus(net.iter) && net.iter != 0 {
			r := Result{Iteration: net.iter}
			if statusSize != 0 {
				r.Cost = statusCost / float64(statusSize)
				r.Correct = statusCorrect / float64(statusSize)
			}

			net.logger.Debug().
				Str("network", net.name).
				Int("iter", net.iter).
				Float64("cost", r.Cost).
				Float64("correct", r.Correct).
				Msg("training status")

			if err := args.Update(r); err != nil {
				return errors.Wrapf(err, "Status update on iteration %d failed", net.iter)
			}

			statusCost, statusCorrect = 0, 0
			statusSize = 0
		}

		if args.ShouldTest(net.iter) {
			cost, correct, err := net.Test(args.TestData, args.IsCorrect)
			if err != nil {
				return errors.Wrapf(err, "Testing on iteration %d failed", net.iter)
			}

			r := Result{
				Iteration: net.iter,
				Cost:      cost,
				Correct:   correct,
				IsTest:    true,
			}

			if err := args.Update(r); err != nil {
				return errors.Wrapf(err, "Test update on iteration %d failed", net.iter)
			}
		}

		if !args.RunCondition(net.iter) {
			break
		}

		net.SetTraining(true)

		d, err := args.TrainData.Get(net.iter)
		if err != nil {
			return errors.Wrapf(err, "Failed to get training data on iteration %d", net.iter)
		} else if !d.Fits(net) {
			return errors.Errorf("Training data for iteration %d does not fit Network", net.iter)
		}

		endBatch := args.TrainData.BatchEnded(net.iter)

		iter := net.iter
		cost, outs, err := net.Correct(d.Inputs, d.Outputs, !endBatch)
		if err != nil {
			return errors.Wrapf(err, "Failed to correct Network on iteration %d", iter)
		}

		statusCost += cost
		if args.IsCorrect(outs, d.Outputs) {
			statusCorrect += 1.0
		}
		statusSize++
	}

	return net.AddWeights()
}

// Test runs the Network on the data until data.DoneTesting returns true, returning the average
// cost and the fraction of outputs that were correct. The Network is not in training mode while
// testing.
func (net *Network) Test(data DataSupplier, isCorrect func([]float64, []float64) bool) (float64, float64, error) {
	if net.stat < finalized {
		return 0, 0, ErrNetNotFinalized
	} else if net.cf == nil {
		return 0, 0, ErrNoCostFunction
	} else if data == nil {
		return 0, 0, NilArgError{"Test data"}
	}

	if isCorrect == nil {
		isCorrect = func(a, b []float64) bool { return false }
	}

	wasTraining := net.training
	net.SetTraining(false)
	defer net.SetTraining(wasTraining)

	var avgCost, avgCorrect float64
	var testSize int

	for {
		d, err := data.Get(testSize)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get test sample %d", testSize)
		} else if !d.Fits(net) {
			return 0, 0, errors.Errorf("Test sample %d does not fit Network dimensions", testSize)
		}

		outs, err := net.GetOutputs(d.Inputs)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get Network outputs with test sample %d", testSize)
		}

		avgCost += net.cf.Cost(outs, d.Outputs)
		if isCorrect(outs, d.Outputs) {
			avgCorrect += 1
		}

		done := data.DoneTesting(testSize)
		testSize++
		if done {
			break
		}
	}

	avgCost /= float64(testSize)
	avgCorrect /= float64(testSize)

	return avgCost, avgCorrect, nil
}

type internalSupplier struct {
	get         func(int) (Datum, error)
	batchEnded  func(int) bool
	doneTesting func(int) bool
}

func (s internalSupplier) Get(iter int) (Datum, error) {
	return s.get(iter)
}

func (s internalSupplier) BatchEnded(iter int) bool {
	return s.batchEnded(iter)
}

func (s internalSupplier) DoneTesting(iter int) bool {
	return s.doneTesting(iter)
}

// Data converts a 3D dataset of float64 to a DataSupplier, which can be used for training or
// testing. dataset indexing is: [data index][inputs, outputs][values]
//
// N.B.: Data does not check if the data fit a certain network; that will be done during
// training/testing
func Data(dataset [][][]float64, batchSize int) (DataSupplier, error) {
	d := dataset
	if len(d) == 0 {
		return nil, errors.Errorf("dataset has no data (len == 0)")
	} else if batchSize < 1 {
		return nil, errors.Errorf("batch size must be >= 1 (%d)", batchSize)
	}

	// check we won't get indexes out of bounds
	for i := range d {
		if len(d[i]) < 2 {
			return nil, errors.Errorf("dataset lacks required data at index %d (len([%d]) < 2)", i, i)
		}
	}

	return Supplier(func(iter int) (Datum, error) {
		i := iter % len(d)
		return Datum{d[i][0], d[i][1]}, nil
	}, EndEvery(batchSize), EndEvery(len(d))), nil
}

// Supplier assembles a DataSupplier from its methods.
func Supplier(get func(int) (Datum, error), batchEnded, doneTesting func(int) bool) DataSupplier {
	return internalSupplier{get, batchEnded, doneTesting}
}
