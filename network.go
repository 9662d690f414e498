package xirt

import (
	"github.com/rs/zerolog"
)

// setError sets the Network's stored error to the error provided.
func (net *Network) setError(e error) {
	net.err = e
}

// Error returns any errors encountered while constructing the Network, particularly while creating
// the architecture.
func (net *Network) Error() error {
	return net.err
}

// Name returns the name given to the Network by New.
func (net *Network) Name() string {
	return net.name
}

// SetLogger replaces the logger used by the Network, which defaults to the global zerolog logger
// at the time the Network was created.
func (net *Network) SetLogger(l zerolog.Logger) *Network {
	net.init()
	net.logger = l
	return net
}

// Nodes returns the list of all Nodes in the Network, sorted by ID such that Nodes()[n] has id=n.
// The slice that Nodes returns is a copy.
func (net *Network) Nodes() []*Node {
	ns := make([]*Node, len(net.nodesByID))
	copy(ns, net.nodesByID)
	return ns
}

// Node returns the Node with the given name, or nil if there is none.
func (net *Network) Node(name string) *Node {
	return net.nodesByName[name]
}

// Inputs returns the input Nodes of the Network, in the order they were added.
func (net *Network) Inputs() []*Node {
	if net.inputs == nil {
		return nil
	}

	ns := make([]*Node, len(net.inputs.nodes))
	copy(ns, net.inputs.nodes)
	return ns
}

// Outputs returns the output Nodes of the Network, or nil if SetOutputs has not been called.
func (net *Network) Outputs() []*Node {
	if net.outputs == nil {
		return nil
	}

	ns := make([]*Node, len(net.outputs.nodes))
	copy(ns, net.outputs.nodes)
	return ns
}

// Finalized returns whether the structure of the Network is complete.
func (net *Network) Finalized() bool {
	return net.stat >= finalized
}

// Cost returns the CostFunction of the Network, which may be nil.
func (net *Network) Cost() CostFunction {
	return net.cf
}

// ParamCount returns the number of trainable weights in the Network and the number of other
// stored values (such as moving statistics). Shared weights are only counted once.
func (net *Network) ParamCount() (trainable, nonTrainable int) {
	for _, ps := range net.params {
		trainable += len(ps.adj.Weights())
	}

	seen := make(map[Stateful]bool)
	for _, n := range net.nodesByID {
		st, ok := n.op.(Stateful)
		if !ok || seen[st] {
			continue
		}

		seen[st] = true
		nonTrainable += len(st.State())
	}

	return
}

// Iter returns the total number of training iterations the Network has gone through.
func (net *Network) Iter() int {
	return net.longIter
}

// SetTraining sets whether the Network is training, which changes the behavior of Operators such
// as Dropout. Train sets this for its duration.
func (net *Network) SetTraining(training bool) {
	if net.training != training {
		net.training = training
		if net.stat > finalized {
			net.stat = finalized
		}
	}
}

// Training returns whether the Network is currently training.
func (net *Network) Training() bool {
	return net.training
}

// InputSize returns the total number of expected input values to the Network. If the Network has
// not been finalized yet, InputSize will return -1.
func (net *Network) InputSize() int {
	if net.stat < finalized {
		return -1
	}

	return net.inputs.size()
}

// OutputSize returns the total number of expected output values to the Network. If the Network has
// not been finalized yet, OutputSize will return -1.
func (net *Network) OutputSize() int {
	if net.stat < finalized {
		return -1
	}

	return net.outputs.size()
}

// SetInputs sets the inputs of the Network to the provided values. If the Network has not been
// finalized, ErrNetNotFinalized will be returned. Else, if the number of inputs does not equal
// the total size of the inputs (given by InputSize()), type SizeMismatchError will be returned.
func (net *Network) SetInputs(inputs []float64) error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	}

	if err := net.inputs.setValues(inputs); err != nil {
		return SizeMismatchError{net.inputs.size(), len(inputs), "inputs"}
	}

	net.stat = finalized
	return nil
}

// GetOutputs returns a copy of the Network's output values for the given inputs. There are several
// error conditions:
//
//   - If the Network has not been finalized: ErrNetNotFinalized
//   - If the number of inputs doesn't match the total size: type SizeMismatchError
func (net *Network) GetOutputs(inputs []float64) ([]float64, error) {
	if err := net.SetInputs(inputs); err != nil {
		return nil, err
	}

	if err := net.evaluate(); err != nil {
		return nil, err
	}

	return net.outputs.getValues(true), nil
}
