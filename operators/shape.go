package operators

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

// just random constants. Have not been optimized
const (
	opsPerThread  = 256
	threadsPerCPU = 1
)

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

// singleInput returns the dimensions of the only input, or an error if there is more than one
func singleInput(inputs []*xirt.Node) ([]int, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("Operator takes exactly one input, got %d", len(inputs))
	}

	return inputs[0].Dims(), nil
}

// sequenceInput returns the number of steps and features of a single two-dimensional input, laid
// out as [steps, features].
func sequenceInput(inputs []*xirt.Node) (steps, features int, err error) {
	dims, err := singleInput(inputs)
	if err != nil {
		return 0, 0, err
	} else if len(dims) != 2 {
		return 0, 0, errors.Errorf("Input must have dimensions [steps, features], got %v", dims)
	}

	return dims[0], dims[1], nil
}
