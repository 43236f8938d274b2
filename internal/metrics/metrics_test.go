package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/georeminder/internal/metrics"
)

func TestMetrics_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveStore("save", nil, time.Millisecond)
	m.ObserveStore("save", errors.New("x"), time.Millisecond)
	m.IncRegistration("armed")
	m.IncDisarm(nil)
	m.IncEvent("processed")
	m.AddNotifications("sent", 2)
	m.AddNotifications("stale", 0)
	m.ObserveProcess(time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["georeminder_store_operations_total"])
	assert.True(t, names["georeminder_geofence_registrations_total"])
	assert.True(t, names["georeminder_notifications_total"])

	count, err := testutil.GatherAndCount(reg, "georeminder_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveStore("get", nil, 0)
		m.IncRegistration("armed")
		m.IncDisarm(nil)
		m.IncEvent("ignored")
		m.AddNotifications("sent", 1)
		m.ObserveProcess(0)
	})
}
