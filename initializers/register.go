package initializers

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

// default values, because 'default' is a keyword
var defaultValue = map[string]float64{
	"uniform-lower": -0.05,
	"uniform-upper": 0.05,
	"normal-mean":   0,
	"normal-sd":     0.05,
	"varscl-factor": 1,
}

func init() {
	xirt.SetDefaultInitializer(Glorot())
}

// SetDefault sets one of the default values used by newly-created RNGs and Initializers. The
// values that can be set are: "uniform-lower", "uniform-upper", "normal-mean", "normal-sd", and
// "varscl-factor".
func SetDefault(name string, value float64) error {
	if _, ok := defaultValue[name]; !ok {
		return errors.Errorf("Value with name %q does not exist", name)
	} else if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Errorf("Value is invalid (%v)", value)
	}

	defaultValue[name] = value
	return nil
}

var byName = map[string]func() xirt.Initializer{
	"glorot_uniform": func() xirt.Initializer { return Glorot() },
	"glorot_normal":  func() xirt.Initializer { return VarianceScaling().Avg() },
	"he_normal":      func() xirt.Initializer { return He() },
	"he_uniform":     func() xirt.Initializer { return He().Uniform() },
	"lecun_normal":   func() xirt.Initializer { return LeCun() },
	"lecun_uniform":  func() xirt.Initializer { return LeCun().Uniform() },
	"random_uniform": func() xirt.Initializer { return Random(Uniform()) },
	"uniform":        func() xirt.Initializer { return Random(Uniform()) },
	"random_normal":  func() xirt.Initializer { return Random(Normal()) },
	"normal":         func() xirt.Initializer { return Random(Normal()) },
	"orthogonal":     func() xirt.Initializer { return OrthogonalInit() },
	"zeros":          func() xirt.Initializer { return Zeros() },

	"truncated_normal": func() xirt.Initializer { return Random(TruncNormal()) },
}

// Get returns a new Initializer with the given Keras-style name, such as "he_normal".
func Get(name string) (xirt.Initializer, error) {
	f, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("Unknown initializer %q", name)
	}

	return f(), nil
}
