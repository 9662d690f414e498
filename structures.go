package xirt

import (
	"github.com/rs/zerolog"
)

// Network is the main structure that is used to learn to map inputs to outputs. A Network is more
// of a containing structure than it actually stores information; the Nodes and their Operators
// hold the values and weights.
type Network struct {
	name string

	inputs, outputs *nodeGroup

	// a list of all of the Nodes, stored such that their id is their index in this slice. Because
	// inputs must always be added before the Nodes that use them, this is also a topological order.
	nodesByID   []*Node
	nodesByName map[string]*Node

	// every distinct Adjustable Operator, in order of first use
	params []*paramSet
	byOp   map[Adjustable]*paramSet

	err error

	cf CostFunction

	defaultInit Initializer
	defaultOpt  func() Optimizer
	hyperParams map[string]HyperParameter

	// used to keep track of the current iteration during training. Also incremented by Correct
	iter int

	// longIter corresponds to the iteration of the network as a whole, not just within the current
	// training run.
	longIter int

	// whether Operators like Dropout should behave as they would during training
	training bool

	logger zerolog.Logger

	stat status
}

// nodeGroups are a collection of what would instead be individual functions because of how
// different objects handle slices of Nodes
//
// nodeGroups default to not being continuous. A nodeGroup is created by new(nodeGroup)
type nodeGroup struct {
	// A list of all of the members of the group
	nodes []*Node

	// Only non-nil if continuous, in which case it covers the same space as the values of each
	// member Node
	values []float64

	// The sum of the sizes of each Node, up to and including the node at the specified index.
	sumVals []int
}

// paramSet is the set of weights belonging to a single Adjustable Operator, along with everything
// needed to change them. It is shared by every Node that uses the Operator.
type paramSet struct {
	adj   Adjustable
	nodes []*Node

	opt  Optimizer
	init Initializer
	pen  Penalty

	// accumulated gradients since the last change to the weights, and the number of samples they
	// were accumulated from
	grads   []float64
	pending int
}

// Nodes are the fundamental building blocks with which the Network is built -- they are the nodes
// of the computation graph. Each Node has an Operator that determines how it computes its values
// from those that it receives as input.
type Node struct {
	name string

	// used for order identification of which nodes were added first
	id int

	host *Network

	// the continuous nodeGroup that the Node belongs to, if there is one. Otherwise nil
	group *nodeGroup

	// The sets that this Node inputs from and outputs to. inputs is nil for input Nodes
	inputs, outputs *nodeGroup

	op  Operator
	adj Adjustable

	// nil unless the Operator is Adjustable
	params *paramSet

	// optional penalty on the values of the Node
	actPen Penalty

	hyperParams map[string]HyperParameter

	dims   []int
	values []float64

	// the derivative of each value w.r.t. the total cost of the current training sample
	deltas []float64

	// whether any of the inputs to this Node need their deltas calculated
	calcInDeltas bool

	// outputIndex indicates the index in the Network outputs that this Node's values start at.
	// Non-output Nodes are given values of -1.
	outputIndex int

	// per-Node storage for the Operator, such as values cached for backpropagation
	cache interface{}

	// Whether or not the current task assigned by the Network has been completed.
	completed bool
}
