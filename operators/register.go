package operators

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

var activations = map[string]func() *activation{
	"linear":       Identity,
	"identity":     Identity,
	"relu":         ReLU,
	"leaky_relu":   func() *activation { return LeakyReLU(0.3) },
	"elu":          func() *activation { return ELU(1) },
	"tanh":         Tanh,
	"sigmoid":      Logistic,
	"logistic":     Logistic,
	"hard_sigmoid": HardSigmoid,
	"softplus":     Softplus,
	"softsign":     Softsign,
}

// ElementwiseActivation returns the elementwise activation with the given Keras-style name, for use
// in places that require one, such as recurrent layers. "softmax" is not elementwise.
func ElementwiseActivation(name string) (*activation, error) {
	f, ok := activations[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("Unknown activation %q", name)
	}

	return f(), nil
}

// Activation returns the activation Operator with the given Keras-style name, such as "relu" or
// "softmax". An empty name gives the "linear" activation.
func Activation(name string) (xirt.Operator, error) {
	switch strings.ToLower(name) {
	case "":
		return Identity(), nil
	case "softmax":
		return Softmax(), nil
	}

	a, err := ElementwiseActivation(name)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Recurrent returns a recurrent layer of the given Keras-style type: "LSTM" or "GRU". The
// "CuDNNLSTM" and "CuDNNGRU" types give the same cells.
func Recurrent(kind string, units int) (*recurrent, error) {
	switch strings.ToLower(kind) {
	case "lstm", "cudnnlstm":
		return LSTM(units), nil
	case "gru", "cudnngru":
		return GRU(units), nil
	}

	return nil, errors.Errorf("Unknown recurrent layer type %q", kind)
}
