package xirtnet

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// EncodeOrdinal returns the ordinal encoding of a class: dims values, where the first 'class' are
// 1 and the rest 0. Valid classes are 0 to dims, inclusive.
func EncodeOrdinal(class, dims int) ([]float64, error) {
	if class < 0 || class > dims {
		return nil, errors.Errorf("class %d out of range for %d dimensions", class, dims)
	}

	v := make([]float64, dims)
	for i := 0; i < class; i++ {
		v[i] = 1
	}
	return v, nil
}

// DecodeOrdinal returns the class of an ordinal prediction: the number of leading values above 0.5.
func DecodeOrdinal(pred []float64) int {
	for i, p := range pred {
		if p <= 0.5 {
			return i
		}
	}
	return len(pred)
}

// DecodeCategorical returns the class of a categorical prediction, the index of its largest value.
// It returns -1 for an empty prediction.
func DecodeCategorical(pred []float64) int {
	if len(pred) == 0 {
		return -1
	}
	return floats.MaxIdx(pred)
}
