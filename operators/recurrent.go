package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/initializers"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type cell int8

const (
	lstmCell cell = iota
	gruCell
)

type recurrent struct {
	cell     cell
	units    int
	features int

	act, recAct *activation

	returnSeq bool
	reverse   bool

	// the kernel (one row per gate unit, one column per feature), then the recurrent kernel (one
	// row per gate unit, one column per unit), then the biases.
	//
	// LSTM gates are ordered: input, forget, cell, output. GRU gates are ordered: update, reset,
	// candidate.
	Ws []float64
}

// recurrentState is stored in the cache of each Node using a recurrent Operator. Entries are
// indexed by the order steps were processed in, which is reversed from the order of the inputs if
// the Operator runs backwards.
type recurrentState struct {
	steps int

	// the state before step k is hs[k]
	hs, cs [][]float64

	// gate values before and after their activations
	pre, gates [][]float64

	// the previous state after the reset gate; only for GRU
	rh [][]float64

	// the input deltas from the most recent call to Grad, or nil
	dx []float64
}

// LSTM returns a long short-term memory layer with the given number of units. Its input must have
// dimensions [steps, features]. The Node's values are the final output of the layer, unless
// ReturnSequences is set.
func LSTM(units int) *recurrent {
	return &recurrent{cell: lstmCell, units: units, act: Tanh(), recAct: Logistic()}
}

// GRU returns a gated recurrent unit layer with the given number of units. The reset gate is
// applied before the recurrent kernel of the candidate state.
func GRU(units int) *recurrent {
	return &recurrent{cell: gruCell, units: units, act: Tanh(), recAct: Logistic()}
}

// Activation sets the activation of the cell state and candidate values. It defaults to Tanh.
func (r *recurrent) Activation(a *activation) *recurrent {
	r.act = a
	return r
}

// RecurrentActivation sets the activation of the gates. It defaults to Logistic.
func (r *recurrent) RecurrentActivation(a *activation) *recurrent {
	r.recAct = a
	return r
}

// ReturnSequences sets whether the Node's values are the output at every step, with dimensions
// [steps, units], instead of only the last.
func (r *recurrent) ReturnSequences(ret bool) *recurrent {
	r.returnSeq = ret
	return r
}

// Reverse sets whether the layer processes its input from the last step to the first. Outputs are
// still stored in the order of the input steps, so that forward and reversed layers line up.
func (r *recurrent) Reverse(rev bool) *recurrent {
	r.reverse = rev
	return r
}

// Backward returns a new Operator with the same settings, running in the opposite direction. It
// does not share weights with the original.
func (r *recurrent) Backward() *recurrent {
	return &recurrent{
		cell:      r.cell,
		units:     r.units,
		act:       r.act,
		recAct:    r.recAct,
		returnSeq: r.returnSeq,
		reverse:   !r.reverse,
	}
}

// Bidirectional adds a pair of recurrent layers running in opposite directions over 'in', joined
// by concatenation. The Nodes are given the names: name+"/forward", name+"/backward", and name;
// the last is returned.
//
// Using the same Operators for multiple inputs shares their weights, as with Network.Add.
func Bidirectional(net *xirt.Network, name string, fwd, bwd *recurrent, in *xirt.Node) *xirt.Node {
	f := net.Add(name+"/forward", fwd, in)
	b := net.Add(name+"/backward", bwd, in)
	return net.Add(name, Concat(), f, b)
}

func (r *recurrent) TypeString() string {
	if r.cell == lstmCell {
		return "lstm"
	}
	return "gru"
}

func (r *recurrent) gates() int {
	if r.cell == lstmCell {
		return 4
	}
	return 3
}

func (r *recurrent) OutputShape(inputs []*xirt.Node) ([]int, error) {
	steps, _, err := sequenceInput(inputs)
	if err != nil {
		return nil, err
	} else if r.units < 1 {
		return nil, errors.Errorf("Number of units must be >= 1 (%d)", r.units)
	} else if r.act == nil || r.recAct == nil {
		return nil, errors.Errorf("Activations must not be nil")
	}

	if r.returnSeq {
		return []int{steps, r.units}, nil
	}
	return []int{r.units}, nil
}

func (r *recurrent) Finalize(n *xirt.Node) error {
	features := n.Input(0).Dims()[1]

	if r.Ws != nil {
		if features != r.features {
			return errors.Errorf("Shared %s layer expects %d features, Node %v has %d", r.TypeString(), r.features, n, features)
		}
		return nil
	}

	r.features = features
	gu := r.gates() * r.units
	r.Ws = make([]float64, gu*r.features+gu*r.units+gu)
	return nil
}

func (r *recurrent) Weights() []float64 {
	return r.Ws
}

func (r *recurrent) KernelSize() int {
	return r.gates() * r.units * r.features
}

func (r *recurrent) Fans(n *xirt.Node) (int, int) {
	return r.features, r.gates() * r.units
}

// InitWeights sets the kernel with the Node's Initializer, the recurrent kernel to be orthogonal,
// and the biases to zero. The biases of the LSTM forget gate are set to one.
func (r *recurrent) InitWeights(n *xirt.Node) {
	gu := r.gates() * r.units
	k := r.KernelSize()

	init := n.Initializer()
	if init == nil {
		init = initializers.Glorot()
	}
	init.Set(n, r.Ws[:k])

	initializers.Orthogonal(gu, r.units, r.Ws[k:k+gu*r.units])

	bias := r.Ws[k+gu*r.units:]
	for i := range bias {
		bias[i] = 0
	}
	if r.cell == lstmCell {
		for i := r.units; i < 2*r.units; i++ {
			bias[i] = 1
		}
	}
}

// split gives the kernel, recurrent kernel and biases within ws, which may be either the weights or
// their gradients
func (r *recurrent) split(ws []float64) (*mat.Dense, *mat.Dense, []float64) {
	gu := r.gates() * r.units
	k := gu * r.features
	return mat.NewDense(gu, r.features, ws[:k]),
		mat.NewDense(gu, r.units, ws[k:k+gu*r.units]),
		ws[k+gu*r.units:]
}

// the index of the input step processed k'th
func (r *recurrent) time(k, steps int) int {
	if r.reverse {
		return steps - 1 - k
	}
	return k
}

func (r *recurrent) state(n *xirt.Node, steps int) *recurrentState {
	if st, ok := n.Cache().(*recurrentState); ok && st.steps == steps {
		return st
	}

	gu := r.gates() * r.units
	matrix := func(rows, cols int) [][]float64 {
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
		}
		return m
	}

	st := &recurrentState{
		steps: steps,
		hs:    matrix(steps+1, r.units),
		pre:   matrix(steps, gu),
		gates: matrix(steps, gu),
	}

	if r.cell == lstmCell {
		st.cs = matrix(steps+1, r.units)
	} else {
		st.rh = matrix(steps, r.units)
	}

	n.SetCache(st)
	return st
}

func (r *recurrent) Evaluate(n *xirt.Node, values []float64) {
	steps := n.Input(0).Dims()[0]
	st := r.state(n, steps)
	st.dx = nil

	w, u, b := r.split(r.Ws)
	x := n.InputValues(0)
	U, F := r.units, r.features

	for k := 0; k < steps; k++ {
		t := r.time(k, steps)
		hPrev := st.hs[k]
		pre, g, h := st.pre[k], st.gates[k], st.hs[k+1]

		z := mat.NewVecDense(len(pre), pre)
		z.MulVec(w, mat.NewVecDense(F, x[t*F:(t+1)*F]))
		floats.Add(pre, b)

		switch r.cell {
		case lstmCell:
			var rec mat.VecDense
			rec.MulVec(u, mat.NewVecDense(U, hPrev))
			floats.Add(pre, rec.RawVector().Data)

			cPrev, c := st.cs[k], st.cs[k+1]
			for j := 0; j < U; j++ {
				g[j] = r.recAct.f(pre[j])
				g[U+j] = r.recAct.f(pre[U+j])
				g[2*U+j] = r.act.f(pre[2*U+j])
				g[3*U+j] = r.recAct.f(pre[3*U+j])

				c[j] = g[U+j]*cPrev[j] + g[j]*g[2*U+j]
				h[j] = g[3*U+j] * r.act.f(c[j])
			}
		case gruCell:
			// the update and reset gates use the previous state directly
			var rec mat.VecDense
			rec.MulVec(u.Slice(0, 2*U, 0, U), mat.NewVecDense(U, hPrev))
			floats.Add(pre[:2*U], rec.RawVector().Data)

			rh := st.rh[k]
			for j := 0; j < U; j++ {
				g[j] = r.recAct.f(pre[j])
				g[U+j] = r.recAct.f(pre[U+j])
				rh[j] = g[U+j] * hPrev[j]
			}

			var cand mat.VecDense
			cand.MulVec(u.Slice(2*U, 3*U, 0, U), mat.NewVecDense(U, rh))
			floats.Add(pre[2*U:], cand.RawVector().Data)

			for j := 0; j < U; j++ {
				g[2*U+j] = r.act.f(pre[2*U+j])
				h[j] = g[j]*hPrev[j] + (1-g[j])*g[2*U+j]
			}
		}

		if r.returnSeq {
			copy(values[t*U:(t+1)*U], h)
		}
	}

	if !r.returnSeq {
		copy(values, st.hs[steps])
	}
}

// backprop runs backpropagation through every step, adding the gradients of the weights to 'grads'
// and returning the deltas of the inputs.
func (r *recurrent) backprop(n *xirt.Node, grads []float64) []float64 {
	st := n.Cache().(*recurrentState)
	steps := st.steps

	w, u, _ := r.split(r.Ws)
	gw, gu, gb := r.split(grads)

	x := n.InputValues(0)
	ds := n.Deltas()
	U, F := r.units, r.features

	dx := make([]float64, n.NumInputs())
	dh := make([]float64, U)
	dc := make([]float64, U)
	dz := make([]float64, r.gates()*U)
	dzv := mat.NewVecDense(len(dz), dz)

	for k := steps - 1; k >= 0; k-- {
		t := r.time(k, steps)
		if r.returnSeq {
			floats.Add(dh, ds[t*U:(t+1)*U])
		} else if k == steps-1 {
			floats.Add(dh, ds)
		}

		hPrev := st.hs[k]
		hv := mat.NewVecDense(U, hPrev)
		pre, g := st.pre[k], st.gates[k]

		// deltas of the previous state
		next := make([]float64, U)

		switch r.cell {
		case lstmCell:
			cPrev, c := st.cs[k], st.cs[k+1]
			for j := 0; j < U; j++ {
				ac := r.act.f(c[j])
				dcj := dc[j] + dh[j]*g[3*U+j]*r.act.df(c[j], ac)

				dz[j] = dcj * g[2*U+j] * r.recAct.df(pre[j], g[j])
				dz[U+j] = dcj * cPrev[j] * r.recAct.df(pre[U+j], g[U+j])
				dz[2*U+j] = dcj * g[j] * r.act.df(pre[2*U+j], g[2*U+j])
				dz[3*U+j] = dh[j] * ac * r.recAct.df(pre[3*U+j], g[3*U+j])

				dc[j] = dcj * g[U+j]
			}

			gu.RankOne(gu, 1, dzv, hv)

			var back mat.VecDense
			back.MulVec(u.T(), dzv)
			copy(next, back.RawVector().Data)
		case gruCell:
			for j := 0; j < U; j++ {
				dz[j] = dh[j] * (hPrev[j] - g[2*U+j]) * r.recAct.df(pre[j], g[j])
				dz[2*U+j] = dh[j] * (1 - g[j]) * r.act.df(pre[2*U+j], g[2*U+j])
				next[j] = dh[j] * g[j]
			}

			uCand := u.Slice(2*U, 3*U, 0, U)
			dCand := dzv.SliceVec(2*U, 3*U)

			var drh mat.VecDense
			drh.MulVec(uCand.T(), dCand)
			for j := 0; j < U; j++ {
				dz[U+j] = drh.AtVec(j) * hPrev[j] * r.recAct.df(pre[U+j], g[U+j])
				next[j] += drh.AtVec(j) * g[U+j]
			}

			gates := gu.Slice(0, 2*U, 0, U).(*mat.Dense)
			gates.RankOne(gates, 1, dzv.SliceVec(0, 2*U), hv)
			cand := gu.Slice(2*U, 3*U, 0, U).(*mat.Dense)
			cand.RankOne(cand, 1, dCand, mat.NewVecDense(U, st.rh[k]))

			var back mat.VecDense
			back.MulVec(u.Slice(0, 2*U, 0, U).T(), dzv.SliceVec(0, 2*U))
			floats.Add(next, back.RawVector().Data)
		}

		gw.RankOne(gw, 1, dzv, mat.NewVecDense(F, x[t*F:(t+1)*F]))
		floats.Add(gb, dz)

		var dxt mat.VecDense
		dxt.MulVec(w.T(), dzv)
		copy(dx[t*F:(t+1)*F], dxt.RawVector().Data)

		dh = next
	}

	return dx
}

func (r *recurrent) Grad(n *xirt.Node, grads []float64) {
	st := n.Cache().(*recurrentState)
	st.dx = r.backprop(n, grads)
}

func (r *recurrent) InputDeltas(n *xirt.Node) []float64 {
	st := n.Cache().(*recurrentState)
	if st.dx == nil {
		st.dx = r.backprop(n, make([]float64, len(r.Ws)))
	}

	dx := st.dx
	st.dx = nil
	return dx
}
