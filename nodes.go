package xirt

import (
	"fmt"
)

// String offers a universal method of gaining information about a Node without printing all of its
// fields. String returns the Node's name, quoted. If given a Node that is nil, String will return:
//
//	<nil>
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%q", n.name)
}

// Name returns the name of the given Node.
func (n *Node) Name() string {
	return n.name
}

// ID returns the non-negative integer given to the Node as a member of its Network. IDs are unique
// within Networks, and every Node has a larger ID than each of its inputs.
func (n *Node) ID() int {
	return n.id
}

// Host returns the Network the Node belongs to.
func (n *Node) Host() *Network {
	return n.host
}

// Operator returns the Operator of the Node, which is nil for input Nodes.
func (n *Node) Operator() Operator {
	return n.op
}

// IsInput returns whether or not the Node is an input Node. Input Nodes will not have Operators.
func (n *Node) IsInput() bool {
	return n.inputs == nil
}

// IsOutput returns whether or not the Node is an output Node.
func (n *Node) IsOutput() bool {
	return n.outputIndex >= 0
}

// Shared returns whether or not the Node shares its weights with another Node.
func (n *Node) Shared() bool {
	return n.params != nil && len(n.params.nodes) > 1
}

// SharesWith returns the Nodes that use the same weights as this one, including itself. It returns
// nil if the Node has no weights.
func (n *Node) SharesWith() []*Node {
	if n.params == nil {
		return nil
	}

	ns := make([]*Node, len(n.params.nodes))
	copy(ns, n.params.nodes)
	return ns
}

// Size returns the number of values the Node produces.
func (n *Node) Size() int {
	return len(n.values)
}

// Dims returns the dimensions of the values that the Node produces. The returned slice is a copy.
func (n *Node) Dims() []int {
	d := make([]int, len(n.dims))
	copy(d, n.dims)
	return d
}

// Values returns the values of the Node. The returned slice is NOT a copy, and should not be
// modified.
func (n *Node) Values() []float64 {
	return n.values
}

// Value returns the value of the Node at the specified index. Value will allow panicking with
// index-out-of-bounds.
func (n *Node) Value(index int) float64 {
	return n.values[index]
}

// Delta returns the derivative of the value at the given index w.r.t. the total cost of the
// Network's outputs for the current training sample.
func (n *Node) Delta(index int) float64 {
	return n.deltas[index]
}

// Deltas returns the deltas of the Node. The returned slice is NOT a copy.
func (n *Node) Deltas() []float64 {
	return n.deltas
}

// HP returns the value of the given HyperParameter at the current iteration. If an unknown
// HyperParameter is requested, HP will panic with ErrNoHP. This should only happen with custom
// Optimizer types, which can be solved by proper usage of Optimizer.Needs().
func (n *Node) HP(name string) float64 {
	hp, ok := n.hyperParam(name)
	if !ok {
		panic(ErrNoHP)
	}

	return hp.Value(n.host.longIter)
}

func (n *Node) hyperParam(name string) (HyperParameter, bool) {
	if hp := n.hyperParams[name]; hp != nil {
		return hp, true
	}

	hp := n.host.hyperParams[name]
	return hp, hp != nil
}

// Initializer returns the Initializer for the weights of the Node, or nil if the Node has no
// weights.
func (n *Node) Initializer() Initializer {
	if n.params == nil {
		return nil
	}

	if n.params.init == nil {
		return n.host.defaultInit
	}
	return n.params.init
}

// Optimizer returns the Optimizer for the weights of the Node, or nil if there is none.
func (n *Node) Optimizer() Optimizer {
	if n.params == nil {
		return nil
	}

	return n.params.opt
}

// Penalty returns the Penalty on the kernel of the Node's weights, if there is one.
func (n *Node) Penalty() Penalty {
	if n.params == nil {
		return nil
	}

	return n.params.pen
}

// Cache returns the value stored by the Node's Operator with SetCache.
func (n *Node) Cache() interface{} {
	return n.cache
}

// SetCache allows Operators to store information specific to a single Node, which is necessary
// because Operators may be shared between Nodes.
func (n *Node) SetCache(c interface{}) {
	n.cache = c
}

// Training returns whether the host Network is currently training.
func (n *Node) Training() bool {
	return n.host.training
}

// Input returns the n'th input Node to the given Node. If the Node has no inputs, it will panic
// with ErrNoInputs.
func (n *Node) Input(index int) *Node {
	if n.IsInput() {
		panic(ErrNoInputs)
	}

	return n.inputs.nodes[index]
}

// InputNodes returns a copy of the set of inputs to the Node.
func (n *Node) InputNodes() []*Node {
	ns := make([]*Node, num(n.inputs))
	if n.inputs != nil {
		copy(ns, n.inputs.nodes)
	}
	return ns
}

// OutputNodes returns a copy of the set of Nodes that take this Node as input.
func (n *Node) OutputNodes() []*Node {
	ns := make([]*Node, num(n.outputs))
	copy(ns, n.outputs.nodes)
	return ns
}

// NumInputNodes returns the number of Nodes from which the Node receives input.
func (n *Node) NumInputNodes() int {
	return num(n.inputs)
}

// NumInputs returns the total number of input values to the node.
func (n *Node) NumInputs() int {
	return n.inputs.size()
}

// InputValue returns the value of the index'th input to the Node, counted across all inputs.
func (n *Node) InputValue(index int) float64 {
	if n.IsInput() {
		panic(ErrNoInputs)
	}

	return n.inputs.value(index)
}

// InputValues returns the values of the index'th input Node. The returned slice is NOT a copy.
func (n *Node) InputValues(index int) []float64 {
	return n.Input(index).values
}

// AllInputs returns a single slice containing all of the input values to the node, in order.
// It is only a copy if there is more than one input Node.
func (n *Node) AllInputs() []float64 {
	if num(n.inputs) == 1 {
		return n.inputs.nodes[0].values
	}

	return n.inputs.getValues(true)
}
