package costfuncs

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

var byName = map[string]func() xirt.CostFunction{
	"mse":                      func() xirt.CostFunction { return MSE() },
	"mean_squared_error":       func() xirt.CostFunction { return MSE() },
	"mae":                      func() xirt.CostFunction { return MAE() },
	"mean_absolute_error":      func() xirt.CostFunction { return MAE() },
	"huber":                    func() xirt.CostFunction { return Huber(1) },
	"huber_loss":               func() xirt.CostFunction { return Huber(1) },
	"binary_crossentropy":      func() xirt.CostFunction { return BinaryCrossEntropy() },
	"categorical_crossentropy": func() xirt.CostFunction { return CrossEntropy() },
}

// Get returns the CostFunction with the given Keras-style name, such as "mse" or
// "binary_crossentropy".
func Get(name string) (xirt.CostFunction, error) {
	f, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("Unknown loss %q", name)
	}

	return f(), nil
}
