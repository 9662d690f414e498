package xirt

import (
	"github.com/pkg/errors"
)

type status int8

const (
	initialized status = iota // 0
	finalized                 // 1
	evaluated                 // 2
	deltas                    // 3
)

// Sets all Nodes' field 'completed' to false
func (net *Network) resetCompletion() {
	for _, n := range net.nodesByID {
		n.completed = false
	}
}

// Checks that all Nodes affect the outputs of the network. Loops are impossible, because every
// Node must be added after its inputs.
func (net *Network) checkOutputs() error {
	var mark func(*Node)
	mark = func(n *Node) {
		if n.completed {
			return
		}

		n.completed = true
		if n.inputs != nil {
			for _, in := range n.inputs.nodes {
				mark(in)
			}
		}
	}

	for _, out := range net.outputs.nodes {
		mark(out)
	}

	defer net.resetCompletion()
	for _, n := range net.nodesByID {
		if !n.completed {
			return errors.Errorf("Node %v does not affect Network outputs", n)
		}
	}

	return nil
}

// Recursively calls itself on inputs to the Node before evaluating
func (n *Node) evaluate() {
	if n.completed {
		return
	} else if n.IsInput() {
		n.completed = true
		return
	}

	for _, in := range n.inputs.nodes {
		in.evaluate()
	}

	n.op.Evaluate(n, n.values)
	n.completed = true
}

// Changes the values of the Nodes so that they accurately reflect the inputs
func (net *Network) evaluate() error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	} else if net.stat >= evaluated {
		return nil
	}

	for _, out := range net.outputs.nodes {
		out.evaluate()
	}

	net.resetCompletion()
	net.stat = evaluated
	return nil
}

// getDeltas calculates the deltas of every Node, given the targets for the current outputs, and
// adds the gradients of all weights to their accumulated totals. Nodes are visited in reverse
// order of ID, so all of a Node's outputs have passed their deltas back before it is reached.
func (net *Network) getDeltas(targets []float64) error {
	if net.stat < evaluated {
		return errors.Errorf("Network must be evaluated before getting deltas")
	} else if net.stat >= deltas {
		return nil
	} else if net.cf == nil {
		return ErrNoCostFunction
	}

	outs := net.outputs.getValues(false)
	if len(targets) != len(outs) {
		return SizeMismatchError{len(outs), len(targets), "targets"}
	}

	for _, n := range net.nodesByID {
		for i := range n.deltas {
			n.deltas[i] = 0
		}
	}

	ds := net.cf.Derivs(outs, targets)
	net.outputs.addDeltas(ds)

	for i := len(net.nodesByID) - 1; i >= 0; i-- {
		n := net.nodesByID[i]
		if n.IsInput() {
			continue
		}

		if n.actPen != nil {
			for v := range n.deltas {
				n.deltas[v] += n.actPen.Deriv(n.values[v])
			}
		}

		if n.params != nil {
			n.adj.Grad(n, n.params.grads)
		}

		if n.calcInDeltas {
			inDs := n.op.InputDeltas(n)
			if len(inDs) != n.NumInputs() {
				return errors.Errorf("Operator %s of Node %v gave %d input deltas, expected %d", n.op.TypeString(), n, len(inDs), n.NumInputs())
			}

			n.inputs.addDeltas(inDs)
		}
	}

	for _, ps := range net.params {
		ps.pending++
	}

	net.stat = deltas
	return nil
}

// Penalty returns the total of all Penalties on weights and Node values for the current inputs. An
// activity penalty is taken over every value of its Node for the single sample. The total is not
// included in the CostFunction.
func (net *Network) Penalty() float64 {
	var sum float64
	for _, ps := range net.params {
		if ps.pen != nil {
			sum += ps.pen.Cost(ps.adj.Weights()[:ps.kernelSize()])
		}
	}

	for _, n := range net.nodesByID {
		if n.actPen != nil {
			sum += n.actPen.Cost(n.values)
		}
	}

	return sum
}

// applies the accumulated gradients of the weights with the Optimizer
func (ps *paramSet) apply() error {
	if ps.pending == 0 {
		return nil
	} else if ps.opt == nil {
		return errors.Wrapf(ErrNoOptimizer, "Can't adjust weights of Node %v", ps.nodes[0])
	}

	ws := ps.adj.Weights()
	k := ps.kernelSize()
	scale := 1 / float64(ps.pending)

	grad := func(i int) float64 {
		g := ps.grads[i] * scale
		if ps.pen != nil && i < k {
			g += ps.pen.Deriv(ws[i])
		}
		return g
	}

	add := func(i int, addend float64) {
		ws[i] += addend
	}

	ps.opt.Run(ps.nodes[0], len(ws), grad, add)

	for i := range ps.grads {
		ps.grads[i] = 0
	}
	ps.pending = 0
	return nil
}

// AddWeights updates the weights in the network with the gradients accumulated since the last
// update, averaged across the samples they came from.
func (net *Network) AddWeights() error {
	for _, ps := range net.params {
		if err := ps.apply(); err != nil {
			return err
		}
	}

	if net.stat > finalized {
		net.stat = finalized
	}
	return nil
}

// Correct runs a single training sample through the Network, accumulating the gradients of its
// weights. If 'saveChanges' is true, the weights will not be changed until AddWeights is called,
// allowing batches of samples. The cost returned does not include penalties.
func (net *Network) Correct(inputs, targets []float64, saveChanges bool) (cost float64, outs []float64, err error) {
	if net.cf == nil {
		err = ErrNoCostFunction
		return
	}

	if outs, err = net.GetOutputs(inputs); err != nil {
		err = errors.Wrapf(err, "Getting outputs failed")
		return
	}

	if err = net.getDeltas(targets); err != nil {
		err = errors.Wrapf(err, "Getting deltas failed")
		return
	}

	cost = net.cf.Cost(outs, targets)

	if !saveChanges {
		if err = net.AddWeights(); err != nil {
			err = errors.Wrapf(err, "Adjusting weights failed")
			return
		}
	}

	// evaluating again must recompute values, even with the same inputs
	net.stat = finalized
	net.iter++
	net.longIter++
	return
}
