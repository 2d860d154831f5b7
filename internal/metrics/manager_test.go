package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterLikes.Inc()
	m.CounterRequests.WithLabelValues("GET", "/api/v1/feed", "200").Inc()
	m.HistRequestDuration.WithLabelValues("/api/v1/feed").Observe(0.02)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["fitness_test_server_workout_likes"])
	assert.True(t, names["fitness_test_server_request"])
	assert.True(t, names["fitness_test_server_request_duration_seconds"])

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterLikes))
}

func TestNewTestManager_Isolated(t *testing.T) {
	// each test manager owns its registry, so creating two must not panic
	a := NewTestManager()
	b := NewTestManager()
	a.CounterSaves.Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.CounterSaves))
}
