package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ReservationsTotal)
	assert.NotNil(t, m.SeatingsTotal)
	assert.NotNil(t, m.DistributedLockDuration)
	assert.NotNil(t, m.OccupiedTables)
	assert.NotNil(t, m.OccupancyMismatches)
}

func TestNewWithRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWithRegistry(reg)

	assert.Panics(t, func() { NewWithRegistry(reg) })
}

func TestNewNop_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop()
		NewNop()
	})
}

func TestReservationsTotal(t *testing.T) {
	m := NewNop()

	m.ReservationsTotal.WithLabelValues("create", ResultSuccess).Inc()
	m.ReservationsTotal.WithLabelValues("create", ResultSuccess).Inc()
	m.ReservationsTotal.WithLabelValues("create", ResultRejected).Inc()
	m.ReservationsTotal.WithLabelValues("status", ResultSuccess).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("create", ResultSuccess)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.ReservationsTotal))
}

func TestSeatingsTotal(t *testing.T) {
	m := NewNop()

	m.SeatingsTotal.WithLabelValues("seat", ResultSuccess).Inc()
	m.SeatingsTotal.WithLabelValues("unseat", ResultPartial).Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeatingsTotal.WithLabelValues("unseat", ResultPartial)))
}

func TestHTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/tables", "list_tables", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/reservations", "create_reservation", "201").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/reservations", "create_reservation", "400").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "http_requests_total" {
			found = true
			assert.Equal(t, 3, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "http_requests_total metric not found")
}

func TestGauges(t *testing.T) {
	m := NewNop()

	m.OccupiedTables.Set(7)
	m.OccupancyMismatches.Set(1)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.OccupiedTables))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OccupancyMismatches))
}
