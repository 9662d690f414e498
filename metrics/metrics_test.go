package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt/metrics"
)

func TestMetrics(t *testing.T) {
	cases := []struct {
		name          string
		outs, targets []float64
		want          float64
	}{
		{"mse", []float64{1, 2}, []float64{0, 0}, 2.5},
		{"mean_absolute_error", []float64{1, -2}, []float64{0, 0}, 1.5},
		{"binary_accuracy", []float64{0.9, 0.2, 0.6, 0.4}, []float64{1, 0, 0, 1}, 0.5},
		{"categorical_accuracy", []float64{0.1, 0.7, 0.2}, []float64{0, 1, 0}, 1},
		{"categorical_accuracy", []float64{0.8, 0.1, 0.1}, []float64{0, 1, 0}, 0},
		{"accuracy", []float64{0.3}, []float64{0}, 1},
		{"acc", []float64{0.2, 0.3, 0.5}, []float64{0, 0, 1}, 1},
	}

	for _, c := range cases {
		f, err := metrics.Get(c.name)
		require.NoError(t, err, c.name)
		assert.InDelta(t, c.want, f(c.outs, c.targets), 1e-12, c.name)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := metrics.Get("auc")
	assert.EqualError(t, err, `Unknown metric "auc"`)
}
