package xirt

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	defaultInit Initializer
	defaultOpt  func() Optimizer
)

// SetDefaultInitializer sets the Initializer that new Networks will use for any Node that has not
// been given one. The subpackage "initializers" sets this on import.
func SetDefaultInitializer(init Initializer) {
	defaultInit = init
}

// SetDefaultOptimizer sets the function used to create an Optimizer for any set of weights that
// has not been given one. The subpackage "optimizers" sets this on import.
func SetDefaultOptimizer(f func() Optimizer) {
	defaultOpt = f
}

// New returns an empty Network with the given name. The zero value of Network is also ready to
// use, with an empty name.
func New(name string) *Network {
	net := new(Network)
	net.name = name
	net.init()
	return net
}

func (net *Network) init() {
	if net.nodesByName != nil {
		return
	}

	net.nodesByName = make(map[string]*Node)
	net.byOp = make(map[Adjustable]*paramSet)
	net.hyperParams = make(map[string]HyperParameter)
	net.inputs = new(nodeGroup)
	net.defaultInit = defaultInit
	net.defaultOpt = defaultOpt
	net.logger = log.Logger
}

// checks that a name can be given to a new Node
func (net *Network) checkName(name string) error {
	if name == "" {
		return errors.Errorf(`Name cannot be ""`)
	} else if strings.Contains(name, `"`) {
		return errors.Errorf(`Name %s contains illegal character: "`, name)
	} else if net.nodesByName[name] != nil {
		return errors.Errorf("Name %q is already taken", name)
	}

	return nil
}

func (net *Network) newNode(name string, dims []int) *Node {
	size := 1
	for _, d := range dims {
		size *= d
	}

	n := &Node{
		name:        name,
		id:          len(net.nodesByID),
		host:        net,
		outputs:     new(nodeGroup),
		dims:        append([]int(nil), dims...),
		values:      make([]float64, size),
		outputIndex: -1,
	}

	net.nodesByName[name] = n
	net.nodesByID = append(net.nodesByID, n)
	return n
}

// AddInput adds a new input Node to the Network with the given dimensions. If the Network has
// already encountered an error, AddInput does nothing and returns nil.
func (net *Network) AddInput(name string, dims []int) *Node {
	net.init()
	if net.err != nil {
		return nil
	} else if net.stat >= finalized {
		net.setError(ErrNetFinalized)
		return nil
	}

	if err := net.checkName(name); err != nil {
		net.setError(errors.Wrapf(err, "Can't add input"))
		return nil
	}

	for i, d := range dims {
		if d < 1 {
			net.setError(errors.Errorf("Can't add input %q, dimension %d is < 1 (%d)", name, i, d))
			return nil
		}
	}
	if len(dims) == 0 {
		net.setError(errors.Errorf("Can't add input %q, no dimensions given", name))
		return nil
	}

	n := net.newNode(name, dims)
	net.inputs.add(n)
	return n
}

// Add adds a new Node to the Network, with the given Operator and inputs. If the Operator is
// Adjustable and has already been added to the Network, the new Node shares its weights with the
// Nodes that were previously given it.
//
// If the Network has already encountered an error, Add does nothing and returns nil. Errors can be
// retrieved by *Network.Error().
func (net *Network) Add(name string, op Operator, inputs ...*Node) *Node {
	net.init()
	if net.err != nil {
		return nil
	} else if net.stat >= finalized {
		net.setError(ErrNetFinalized)
		return nil
	}

	if err := net.checkName(name); err != nil {
		net.setError(errors.Wrapf(err, "Can't add Node"))
		return nil
	} else if op == nil {
		net.setError(errors.Wrapf(NilArgError{"Operator"}, "Can't add Node %q", name))
		return nil
	} else if len(inputs) == 0 {
		net.setError(errors.Errorf("Can't add Node %q, no inputs given", name))
		return nil
	}

	for i, in := range inputs {
		if in == nil {
			net.setError(errors.Errorf("Can't add Node %q, input %d is nil", name, i))
			return nil
		} else if in.host != net {
			net.setError(errors.Errorf("Can't add Node %q, input %d (%v) does not belong to the same Network", name, i, in))
			return nil
		}
	}

	dims, err := op.OutputShape(inputs)
	if err != nil {
		net.setError(errors.Wrapf(err, "Can't add Node %q, getting output shape from Operator %s failed", name, op.TypeString()))
		return nil
	}

	for i, d := range dims {
		if d < 1 {
			net.setError(errors.Errorf("Can't add Node %q, Operator gave dimension %d < 1 (%d)", name, i, d))
			return nil
		}
	}

	n := net.newNode(name, dims)
	n.op = op
	n.deltas = make([]float64, len(n.values))
	n.inputs = new(nodeGroup)
	n.inputs.add(inputs...)

	for _, in := range inputs {
		if !in.IsInput() {
			n.calcInDeltas = true
		}
	}

	if err := op.Finalize(n); err != nil {
		net.nodesByID = net.nodesByID[:n.id]
		delete(net.nodesByName, name)
		net.setError(errors.Wrapf(err, "Can't add Node %q, finalizing Operator %s failed", name, op.TypeString()))
		return nil
	}

	for _, in := range inputs {
		in.outputs.add(n)
	}

	if adj, ok := op.(Adjustable); ok {
		n.adj = adj

		ps := net.byOp[adj]
		if ps == nil {
			ps = &paramSet{adj: adj}
			net.byOp[adj] = ps
			net.params = append(net.params, ps)
		}

		ps.nodes = append(ps.nodes, n)
		n.params = ps
	}

	return n
}

// Opt sets the Optimizer of the weights used by the Node. Because weights may be shared, this sets
// the Optimizer for every Node with the same Operator. Opt does nothing if the Node's Operator is
// not Adjustable.
func (n *Node) Opt(opt Optimizer) *Node {
	if n == nil {
		return nil
	} else if opt == nil {
		n.host.setError(errors.Wrapf(NilArgError{"Optimizer"}, "Can't set Optimizer of %v", n))
		return n
	}

	if n.params != nil {
		n.params.opt = opt
	}
	return n
}

// Init sets the Initializer of the weights used by the Node. As with Opt, this affects every Node
// sharing the same Operator.
func (n *Node) Init(init Initializer) *Node {
	if n == nil {
		return nil
	} else if init == nil {
		n.host.setError(errors.Wrapf(NilArgError{"Initializer"}, "Can't set Initializer of %v", n))
		return n
	}

	if n.params != nil {
		n.params.init = init
	}
	return n
}

// Penalize sets a Penalty on the kernel of the weights used by the Node.
func (n *Node) Penalize(pen Penalty) *Node {
	if n == nil {
		return nil
	}

	if n.params != nil {
		n.params.pen = pen
	}
	return n
}

// ActivityPenalty sets a Penalty on the values of the Node. It is added to the cost of the Network
// during training.
func (n *Node) ActivityPenalty(pen Penalty) *Node {
	if n == nil {
		return nil
	}

	n.actPen = pen
	return n
}

// AddHP adds a HyperParameter to the Node, which takes priority over those of the Network with the
// same name.
func (n *Node) AddHP(name string, hp HyperParameter) *Node {
	if n == nil {
		return nil
	} else if hp == nil {
		n.host.setError(errors.Wrapf(NilArgError{"HyperParameter"}, "Can't add HyperParameter %q to %v", name, n))
		return n
	}

	if n.hyperParams == nil {
		n.hyperParams = make(map[string]HyperParameter)
	}
	n.hyperParams[name] = hp
	return n
}

// AddHP adds a HyperParameter to the Network, which will be used by any Node that does not have one
// with the same name. Any previous HyperParameter with the same name is replaced.
func (net *Network) AddHP(name string, hp HyperParameter) *Network {
	net.init()
	if hp == nil {
		net.setError(errors.Wrapf(NilArgError{"HyperParameter"}, "Can't add HyperParameter %q", name))
		return net
	}

	net.hyperParams[name] = hp
	return net
}

// DefaultInit sets the Initializer used for any Node without one.
func (net *Network) DefaultInit(init Initializer) *Network {
	net.init()
	net.defaultInit = init
	return net
}

// DefaultOpt sets the function used to create Optimizers for any weights without one.
func (net *Network) DefaultOpt(f func() Optimizer) *Network {
	net.init()
	net.defaultOpt = f
	return net
}

// SetOptimizer replaces the Optimizer of every set of weights in the Network with a new one from
// the given function, discarding any state the previous Optimizers had.
func (net *Network) SetOptimizer(f func() Optimizer) error {
	net.init()
	if f == nil {
		return NilArgError{"Optimizer function"}
	}

	net.defaultOpt = f
	for _, ps := range net.params {
		ps.opt = f()
	}

	return nil
}

// SetOutputs finishes the structure of the Network. The weights of every Adjustable Operator are
// initialized, and default Optimizers are assigned where none were given.
//
// No outputs can be inputs, and all Nodes must affect the outputs. If an error is returned, the
// Network has remained unchanged.
func (net *Network) SetOutputs(outputs ...*Node) error {
	net.init()
	if net.err != nil {
		return errors.Wrapf(net.err, "Can't set outputs of network, an error was encountered during construction")
	} else if net.stat >= finalized {
		return ErrNetFinalized
	} else if len(net.nodesByID) == 0 {
		return errors.Errorf("Can't set outputs of network, network has no nodes")
	} else if len(outputs) == 0 {
		return errors.Errorf("Can't set outputs of network, none given")
	}

	for i, out := range outputs {
		if out == nil {
			return errors.Errorf("Can't set outputs of network, output node #%d is nil", i)
		} else if out.host != net {
			return errors.Errorf("Can't set outputs of network, output node #%d (%v) does not belong to this network", i, out)
		} else if out.IsInput() {
			return errors.Errorf("Can't set outputs of network, output node #%d (%v) is both an input and an output", i, out)
		}

		for o := i + 1; o < len(outputs); o++ {
			if out == outputs[o] {
				return errors.Errorf("Can't set outputs of network, output #%d (%v) is also #%d", i, out, o)
			}
		}
	}

	for _, ps := range net.params {
		if ps.init == nil && net.defaultInit == nil {
			if _, ok := ps.adj.(WeightIniter); !ok {
				return errors.Wrapf(ErrNoInitializer, "Can't set outputs of network, Node %v", ps.nodes[0])
			}
		}
	}

	net.outputs = new(nodeGroup)
	net.outputs.add(outputs...)

	if err := net.checkOutputs(); err != nil {
		net.outputs = nil
		return err
	}

	for i, out := range outputs {
		out.outputIndex = net.outputs.sumVals[i] - out.Size()
	}

	for _, n := range net.nodesByID {
		n.outputs.trim()
	}

	net.inputs.trim()
	net.inputs.makeContinuous()
	net.outputs.makeContinuous()

	for _, ps := range net.params {
		if ps.init == nil {
			ps.init = net.defaultInit
		}
		if ps.opt == nil && net.defaultOpt != nil {
			ps.opt = net.defaultOpt()
		}

		ps.initWeights()
		ps.grads = make([]float64, len(ps.adj.Weights()))
	}

	net.stat = finalized

	trainable, fixed := net.ParamCount()
	net.logger.Debug().
		Str("network", net.name).
		Int("nodes", len(net.nodesByID)).
		Int("inputs", net.inputs.size()).
		Int("outputs", net.outputs.size()).
		Int("trainable", trainable).
		Int("non_trainable", fixed).
		Msg("network finalized")

	return nil
}

// SetCost sets the CostFunction of the Network. This may be done before or after SetOutputs, and
// may be changed later, allowing different CostFunctions for training and final model evaluation.
func (net *Network) SetCost(cf CostFunction) error {
	if cf == nil {
		return NilArgError{"CostFunction"}
	}

	net.cf = cf
	return nil
}

// Finalize is shorthand for SetOutputs followed by SetCost.
func (net *Network) Finalize(cf CostFunction, outputs ...*Node) error {
	if cf == nil {
		return NilArgError{"CostFunction"}
	}

	if err := net.SetOutputs(outputs...); err != nil {
		return err
	}

	net.cf = cf
	return nil
}

func (ps *paramSet) initWeights() {
	n := ps.nodes[0]
	if wi, ok := ps.adj.(WeightIniter); ok {
		wi.InitWeights(n)
		return
	}

	ws := ps.adj.Weights()
	k := len(ws)
	if kern, ok := ps.adj.(Kerneled); ok {
		k = kern.KernelSize()
	}

	ps.init.Set(n, ws[:k])
	for i := k; i < len(ws); i++ {
		ws[i] = 0
	}
}

// kernelSize returns the number of weights that Penalties apply to
func (ps *paramSet) kernelSize() int {
	if kern, ok := ps.adj.(Kerneled); ok {
		return kern.KernelSize()
	}

	return len(ps.adj.Weights())
}
