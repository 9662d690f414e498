// Package penalties provides the regularization terms that can be put on the kernels or the values
// of Nodes.
package penalties

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

// Regularizer is a Penalty whose factors can be reported, in the same form as Keras: a map with
// the keys "l1" and "l2".
type Regularizer interface {
	xirt.Penalty
	Config() map[string]float64
}

// ErrUnknown matches every UnknownError with errors.Is
var ErrUnknown = errors.New("unknown regularizer")

// UnknownError is returned when a regularizer name is not recognized.
type UnknownError struct {
	Name string
}

func (err UnknownError) Error() string {
	return "unknown regularizer: " + err.Name
}

func (err UnknownError) Is(target error) bool {
	return target == ErrUnknown
}

// Get returns the Regularizer with the given name and factor. "l1l2" (or "l1_l2") uses the same
// factor for both terms, and "elastic_net" splits it evenly between them. Unknown names give
// UnknownError.
func Get(name string, value float64) (Regularizer, error) {
	switch strings.ToLower(name) {
	case "l1":
		return L1(value), nil
	case "l2":
		return L2(value), nil
	case "l1l2", "l1_l2":
		return L1L2(value, value), nil
	case "elastic_net", "elasticnet":
		return ElasticNet(0.5, value), nil
	}

	return nil, UnknownError{name}
}
