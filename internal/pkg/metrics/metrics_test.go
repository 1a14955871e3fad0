package metrics_test

import (
	"testing"

	"clinicalorders/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	r.OrderSaved("NEW")
	r.OrderSaved("NEW")
	r.OrderSaved("REVISE")
	r.OrderRejected("save", "ambiguous_order")
	r.OrderStopped()
	r.OrderVoided()
	r.OrderUnvoided()
	r.AuditCompleted(3)
	r.AuditFailed()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	series := map[string]int{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
			series[mf.GetName()]++
		}
	}

	assert.Equal(t, 2, series["orders_saved_total"], "one series per action")
	assert.Equal(t, 2, series["orders_audit_runs_total"])
	assert.InDelta(t, 3.0, values["orders_saved_total"], 0)
	assert.InDelta(t, 1.0, values["orders_rejected_total"], 0)
	assert.InDelta(t, 1.0, values["orders_stopped_total"], 0)
	assert.InDelta(t, 3.0, values["orders_audit_conflicts_total"], 0)
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	_, err = metrics.NewRecorder(reg)

	require.Error(t, err)
}
