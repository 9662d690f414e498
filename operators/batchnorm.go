package operators

import (
	"math"

	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

const (
	defaultMomentum float64 = 0.99
	defaultEpsilon  float64 = 1e-3
)

type batchNorm struct {
	features int

	momentum, eps float64

	// the scale for each feature, then the offset
	Ws []float64

	// the moving mean for each feature, then the moving variance
	Stats []float64
}

// BatchNorm returns a normalization operator over the last dimension of its input. Values are
// normalized with the moving mean and variance of each feature, then scaled and shifted by learned
// weights.
//
// While the Network is training, each sample updates the moving statistics with momentum 0.99 before
// it is normalized. The moving statistics are treated as constant for backpropagation.
func BatchNorm() *batchNorm {
	return &batchNorm{momentum: defaultMomentum, eps: defaultEpsilon}
}

// Momentum sets the momentum of the moving statistics.
func (b *batchNorm) Momentum(m float64) *batchNorm {
	b.momentum = m
	return b
}

func (b *batchNorm) TypeString() string {
	return "batch-norm"
}

func (b *batchNorm) OutputShape(inputs []*xirt.Node) ([]int, error) {
	if b.momentum < 0 || b.momentum > 1 {
		return nil, errors.Errorf("Momentum must be in [0, 1] (%v)", b.momentum)
	}

	return singleInput(inputs)
}

func (b *batchNorm) Finalize(n *xirt.Node) error {
	dims := n.Dims()
	features := dims[len(dims)-1]

	if b.Ws != nil {
		if features != b.features {
			return errors.Errorf("Shared batch normalization expects %d features, Node %v has %d", b.features, n, features)
		}
		return nil
	}

	b.features = features
	b.Ws = make([]float64, 2*features)
	b.Stats = make([]float64, 2*features)
	for f := 0; f < features; f++ {
		b.Stats[features+f] = 1
	}
	return nil
}

func (b *batchNorm) Weights() []float64 {
	return b.Ws
}

func (b *batchNorm) State() []float64 {
	return b.Stats
}

func (b *batchNorm) KernelSize() int {
	return 0
}

// InitWeights sets the scale to one and the offset to zero
func (b *batchNorm) InitWeights(n *xirt.Node) {
	for f := 0; f < b.features; f++ {
		b.Ws[f] = 1
		b.Ws[b.features+f] = 0
	}
}

// updates the moving statistics with the values of the sample. Each row is one observation of the
// features, and its squared distance from the previous moving mean feeds the moving variance, so a
// sample with a single row still moves the variance.
func (b *batchNorm) update(inputs []float64) {
	rows := len(inputs) / b.features
	mean, variance := b.Stats[:b.features], b.Stats[b.features:]

	for f := 0; f < b.features; f++ {
		var sum, sq float64
		for r := 0; r < rows; r++ {
			v := inputs[r*b.features+f]
			sum += v
			sq += (v - mean[f]) * (v - mean[f])
		}

		m := sum / float64(rows)
		v := sq / float64(rows)

		mean[f] = b.momentum*mean[f] + (1-b.momentum)*m
		variance[f] = b.momentum*variance[f] + (1-b.momentum)*v
	}
}

func (b *batchNorm) scale(f int) float64 {
	return 1 / math.Sqrt(b.Stats[b.features+f]+b.eps)
}

func (b *batchNorm) Evaluate(n *xirt.Node, values []float64) {
	inputs := n.InputValues(0)
	if n.Training() {
		b.update(inputs)
	}

	for i := range values {
		f := i % b.features
		xhat := (inputs[i] - b.Stats[f]) * b.scale(f)
		values[i] = b.Ws[f]*xhat + b.Ws[b.features+f]
	}
}

func (b *batchNorm) InputDeltas(n *xirt.Node) []float64 {
	ds := make([]float64, n.Size())
	for i := range ds {
		f := i % b.features
		ds[i] = n.Delta(i) * b.Ws[f] * b.scale(f)
	}

	return ds
}

func (b *batchNorm) Grad(n *xirt.Node, grads []float64) {
	inputs := n.InputValues(0)
	for i, d := range n.Deltas() {
		f := i % b.features
		grads[f] += d * (inputs[i] - b.Stats[f]) * b.scale(f)
		grads[b.features+f] += d
	}
}
