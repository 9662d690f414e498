package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

type embedding struct {
	vocab, dim int

	// one row of length dim for each token in the vocabulary
	Ws []float64
}

// Embedding returns an operator that maps each input value, taken as an integer token in
// [0, vocab), to a learned vector of length dim. A Node with an input of size L has dimensions
// [L, dim]. Tokens outside the vocabulary map to zeros.
//
// Inputs to Embedding never receive deltas.
func Embedding(vocab, dim int) *embedding {
	return &embedding{vocab: vocab, dim: dim}
}

func (e *embedding) TypeString() string {
	return "embedding"
}

func (e *embedding) OutputShape(inputs []*xirt.Node) ([]int, error) {
	if e.vocab < 1 || e.dim < 1 {
		return nil, errors.Errorf("Vocabulary and dimension must be >= 1 (%d, %d)", e.vocab, e.dim)
	} else if len(inputs) != 1 {
		return nil, errors.Errorf("Embedding takes exactly one input, got %d", len(inputs))
	}

	return []int{inputs[0].Size(), e.dim}, nil
}

func (e *embedding) Finalize(n *xirt.Node) error {
	if e.Ws == nil {
		e.Ws = make([]float64, e.vocab*e.dim)
	}
	return nil
}

func (e *embedding) Weights() []float64 {
	return e.Ws
}

func (e *embedding) Fans(n *xirt.Node) (int, int) {
	return e.vocab, e.dim
}

// token returns the row of the weights for the input at index i, or -1 if out of range
func (e *embedding) token(n *xirt.Node, i int) int {
	t := int(n.InputValue(i))
	if t < 0 || t >= e.vocab {
		return -1
	}
	return t
}

func (e *embedding) Evaluate(n *xirt.Node, values []float64) {
	for i := 0; i < n.NumInputs(); i++ {
		row := values[i*e.dim : (i+1)*e.dim]
		t := e.token(n, i)
		if t < 0 {
			for j := range row {
				row[j] = 0
			}
			continue
		}

		copy(row, e.Ws[t*e.dim:(t+1)*e.dim])
	}
}

func (e *embedding) InputDeltas(n *xirt.Node) []float64 {
	return make([]float64, n.NumInputs())
}

func (e *embedding) Grad(n *xirt.Node, grads []float64) {
	ds := n.Deltas()
	for i := 0; i < n.NumInputs(); i++ {
		t := e.token(n, i)
		if t < 0 {
			continue
		}

		for j := 0; j < e.dim; j++ {
			grads[t*e.dim+j] += ds[i*e.dim+j]
		}
	}
}
