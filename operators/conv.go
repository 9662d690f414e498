package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
	"github.com/xirtnet/xirt/utils"
)

type conv1D struct {
	filters int
	width   int
	same    bool

	features int

	// weights are stored by filter, then by position within the filter, then by input feature.
	// Biases are appended to the end.
	Ws []float64
}

// Conv1D returns a one-dimensional convolution over inputs with dimensions [steps, features], with
// the given number of filters of the given width and a stride of 1. The Node has dimensions
// [steps', filters], where steps' depends on the padding.
//
// Conv1D defaults to "valid" padding, which uses no padding at all. Padding can be changed by Pad.
func Conv1D(filters, width int) *conv1D {
	return &conv1D{filters: filters, width: width}
}

// Pad sets the padding mode, either "valid" or "same". With "same" padding, the input is padded
// with zeros so that the number of steps is unchanged.
func (c *conv1D) Pad(mode string) (*conv1D, error) {
	switch mode {
	case "valid":
		c.same = false
	case "same":
		c.same = true
	default:
		return nil, errors.Errorf("Unknown padding %q, expected \"valid\" or \"same\"", mode)
	}

	return c, nil
}

func (c *conv1D) TypeString() string {
	return "conv1d"
}

// the number of zeros padded before the input
func (c *conv1D) left() int {
	if c.same {
		return (c.width - 1) / 2
	}
	return 0
}

func (c *conv1D) outSteps(steps int) int {
	if c.same {
		return steps
	}
	return steps - c.width + 1
}

func (c *conv1D) OutputShape(inputs []*xirt.Node) ([]int, error) {
	steps, _, err := sequenceInput(inputs)
	if err != nil {
		return nil, err
	} else if c.filters < 1 || c.width < 1 {
		return nil, errors.Errorf("Number of filters and filter width must be >= 1 (%d, %d)", c.filters, c.width)
	} else if c.outSteps(steps) < 1 {
		return nil, errors.Errorf("Filter width %d is larger than the number of steps (%d)", c.width, steps)
	}

	return []int{c.outSteps(steps), c.filters}, nil
}

func (c *conv1D) Finalize(n *xirt.Node) error {
	features := n.Input(0).Dims()[1]

	if c.Ws != nil {
		if features != c.features {
			return errors.Errorf("Shared convolution expects %d features, Node %v has %d", c.features, n, features)
		}
		return nil
	}

	c.features = features
	c.Ws = make([]float64, c.KernelSize()+c.filters)
	return nil
}

func (c *conv1D) Weights() []float64 {
	return c.Ws
}

func (c *conv1D) KernelSize() int {
	return c.filters * c.width * c.features
}

func (c *conv1D) Fans(n *xirt.Node) (int, int) {
	return c.width * c.features, c.width * c.filters
}

// calls f with the index of each weight in the filter and the index of the input it is multiplied
// by, for the output step t
func (c *conv1D) window(t, steps int, f func(j, in int)) {
	for j := 0; j < c.width; j++ {
		s := t + j - c.left()
		if s < 0 || s >= steps {
			continue
		}

		for ft := 0; ft < c.features; ft++ {
			f(j*c.features+ft, s*c.features+ft)
		}
	}
}

func (c *conv1D) Evaluate(n *xirt.Node, values []float64) {
	inputs := n.InputValues(0)
	steps := n.Input(0).Dims()[0]
	filterSize := c.width * c.features
	bias := c.Ws[c.KernelSize():]

	f := func(t int) {
		for o := 0; o < c.filters; o++ {
			ws := c.Ws[o*filterSize : (o+1)*filterSize]
			sum := bias[o]
			c.window(t, steps, func(j, in int) {
				sum += ws[j] * inputs[in]
			})
			values[t*c.filters+o] = sum
		}
	}

	utils.MultiThread(0, c.outSteps(steps), f, 1, threadsPerCPU)
}

func (c *conv1D) InputDeltas(n *xirt.Node) []float64 {
	steps := n.Input(0).Dims()[0]
	filterSize := c.width * c.features
	ds := make([]float64, n.NumInputs())

	for t := 0; t < c.outSteps(steps); t++ {
		for o := 0; o < c.filters; o++ {
			d := n.Delta(t*c.filters + o)
			ws := c.Ws[o*filterSize : (o+1)*filterSize]
			c.window(t, steps, func(j, in int) {
				ds[in] += d * ws[j]
			})
		}
	}

	return ds
}

func (c *conv1D) Grad(n *xirt.Node, grads []float64) {
	inputs := n.InputValues(0)
	steps := n.Input(0).Dims()[0]
	filterSize := c.width * c.features
	bias := grads[c.KernelSize():]

	for t := 0; t < c.outSteps(steps); t++ {
		for o := 0; o < c.filters; o++ {
			d := n.Delta(t*c.filters + o)
			gs := grads[o*filterSize : (o+1)*filterSize]
			c.window(t, steps, func(j, in int) {
				gs[j] += d * inputs[in]
			})
			bias[o] += d
		}
	}
}
