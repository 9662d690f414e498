package xirt

// Operator is the interface that determines how a Node computes its values from its inputs, and
// how the deltas of those values are passed back to its inputs.
type Operator interface {
	// TypeString returns the string corresponding to the type of the Operator. For example: the
	// Operator "Identity" should return "identity", or something to that effect.
	TypeString() string

	// OutputShape returns the dimensions of the values of a Node with the given inputs. It is
	// called once, when the Node is added to the Network.
	OutputShape(inputs []*Node) ([]int, error)

	// Finalize is called once per Node after its dimensions are known. An Operator that is shared
	// between several Nodes will have Finalize called once for each of them, and must check that
	// the Nodes are compatible.
	Finalize(*Node) error

	// Evaluate should set the values of the Node, given its inputs. The provided slice is the
	// Node's values.
	Evaluate(*Node, []float64)

	// InputDeltas returns the derivative of the total cost w.r.t. each input value to the Node,
	// given the Node's deltas. The returned slice must have length equal to n.NumInputs().
	InputDeltas(*Node) []float64
}

// Adjustable is an Operator with weights. An Adjustable Operator may be attached to more than one
// Node, in which case all of those Nodes share the same weights.
type Adjustable interface {
	Operator

	// Weights returns the weights of the Operator. The returned slice is not a copy; changes to it
	// change the Operator.
	Weights() []float64

	// Grad adds the gradient of the total cost w.r.t. each weight to 'grads', given the deltas of
	// the provided Node. len(grads) is always equal to len(Weights()).
	Grad(n *Node, grads []float64)
}

// Kerneled is implemented by Adjustable Operators whose weights begin with a kernel that is
// followed by terms (such as biases) which are not affected by Penalties or the Initializer. If an
// Adjustable Operator does not implement Kerneled, all of its weights are treated as kernel.
type Kerneled interface {
	KernelSize() int
}

// WeightIniter is implemented by Adjustable Operators that set their own initial weights, in which
// case the Node's Initializer is not applied directly.
type WeightIniter interface {
	InitWeights(n *Node)
}

// Stateful is implemented by Operators that hold non-trainable values, such as moving statistics.
// The values returned by State are saved alongside the weights.
type Stateful interface {
	State() []float64
}

// Fanner is implemented by Operators that know the fan-in and fan-out of their kernel, for use by
// variance-scaling Initializers.
type Fanner interface {
	Fans(n *Node) (in, out int)
}

// CostFunction evaluates the outputs of the Network against their targets.
type CostFunction interface {
	TypeString() string

	// Cost returns the total cost of the outputs. It can be assumed that the lengths of the outputs
	// and targets are equal.
	Cost(outs, targets []float64) float64

	// Derivs returns the derivative of the cost w.r.t. each output value.
	Derivs(outs, targets []float64) []float64
}

// Optimizer determines how weights are changed, given their gradients. Each set of shared weights
// has its own Optimizer, so Optimizers are free to keep state.
type Optimizer interface {
	TypeString() string

	// Needs returns the names of the HyperParameters the Optimizer requires.
	Needs() []string

	// Run is called to suggest changes to each weight, given: the Node whose HyperParameters should
	// be used, the number of weights, gradient at weight, and a function to add to weights.
	Run(n *Node, size int, grad func(int) float64, add func(int, float64))
}

// Penalty is a regularization term on a set of values, applied either to the kernel of an
// Adjustable Operator or to the values (activity) of a Node.
type Penalty interface {
	TypeString() string

	// Deriv returns the derivative of the penalty w.r.t. a single value.
	Deriv(v float64) float64

	// Cost returns the total penalty of the values.
	Cost(vs []float64) float64
}

// Initializer dictates how the weights of an Adjustable Operator are set, given a slice to fill.
type Initializer interface {
	Set(n *Node, ws []float64)
}

// HyperParameter gives a value that may change over the course of training. The learning rate is
// the HyperParameter "learning-rate".
type HyperParameter interface {
	TypeString() string
	Value(iter int) float64
}
