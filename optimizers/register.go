package optimizers

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

func init() {
	xirt.SetDefaultOptimizer(func() xirt.Optimizer { return SGD() })
}

var byName = map[string]func() xirt.Optimizer{
	"sgd":     func() xirt.Optimizer { return SGD() },
	"adam":    func() xirt.Optimizer { return Adam() },
	"rmsprop": func() xirt.Optimizer { return RMSprop() },
}

// Get returns a function creating the Optimizer with the given name: "sgd", "adam" or "rmsprop".
// Each set of weights needs its own Optimizer, so the function is called once for each.
func Get(name string) (func() xirt.Optimizer, error) {
	f, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("Unknown optimizer %q", name)
	}

	return f, nil
}
