package penalties_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xirtnet/xirt/penalties"
)

func TestGet(t *testing.T) {
	ws := []float64{1, -2, 0}

	cases := []struct {
		name  string
		cost  float64
		deriv float64 // at w = -2
		conf  map[string]float64
	}{
		{"l1", 0.3, -0.1, map[string]float64{"l1": 0.1, "l2": 0}},
		{"L2", 0.5, -0.4, map[string]float64{"l1": 0, "l2": 0.1}},
		{"l1_l2", 0.8, -0.5, map[string]float64{"l1": 0.1, "l2": 0.1}},
		{"l1l2", 0.8, -0.5, map[string]float64{"l1": 0.1, "l2": 0.1}},
		{"elastic_net", 0.4, -0.25, map[string]float64{"l1": 0.05, "l2": 0.05}},
	}

	for _, c := range cases {
		r, err := penalties.Get(c.name, 0.1)
		require.NoError(t, err, c.name)
		assert.InDelta(t, c.cost, r.Cost(ws), 1e-12, c.name)
		assert.InDelta(t, c.deriv, r.Deriv(-2), 1e-12, c.name)
		assert.Equal(t, c.conf, r.Config(), c.name)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := penalties.Get("l3", 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, penalties.ErrUnknown))

	var unknown penalties.UnknownError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "l3", unknown.Name)
}

func TestL1AtZero(t *testing.T) {
	assert.Zero(t, penalties.L1(0.5).Deriv(0))
	assert.Zero(t, penalties.ElasticNet(0.5, 1).Deriv(0))
}

func TestElasticNetLimits(t *testing.T) {
	ws := []float64{0.5, -1.5}

	assert.InDelta(t, penalties.L1(0.2).Cost(ws), penalties.ElasticNet(1, 0.2).Cost(ws), 1e-12)
	assert.InDelta(t, penalties.L2(0.2).Cost(ws), penalties.ElasticNet(0, 0.2).Cost(ws), 1e-12)
	assert.InDelta(t, penalties.L2(0.2).Deriv(-1.5), penalties.ElasticNet(0, 0.2).Deriv(-1.5), 1e-12)
}
