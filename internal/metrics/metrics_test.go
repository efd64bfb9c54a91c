package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	require.NotPanics(t, RegisterDefault)
	require.NotPanics(t, RegisterDefault)
	mfs, err := Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestObserveSolve(t *testing.T) {
	okBefore := counterValue(Solves.WithLabelValues("greedy", "ok"))
	errBefore := counterValue(Solves.WithLabelValues("greedy", "error"))
	tripsBefore := counterValue(TripsPlanned)
	creditedBefore := counterValue(TargetsCredited)

	ObserveSolve("greedy", 0.01, 3, 7, 1, nil)
	ObserveSolve("greedy", 0.01, 9, 9, 9, errors.New("boom"))

	assert.InDelta(t, okBefore+1, counterValue(Solves.WithLabelValues("greedy", "ok")), 1e-9)
	assert.InDelta(t, errBefore+1, counterValue(Solves.WithLabelValues("greedy", "error")), 1e-9)
	assert.InDelta(t, tripsBefore+3, counterValue(TripsPlanned), 1e-9)
	assert.InDelta(t, creditedBefore+7, counterValue(TargetsCredited), 1e-9)
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}
