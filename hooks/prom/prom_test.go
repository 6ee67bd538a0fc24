package prom

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "app")
	require.NoError(t, err)

	h.RecordCreated("a")
	h.Flushed("a", []string{"_accessed_time", "cart"})
	h.Flushed("b", []string{"_accessed_time"})
	h.ConflictSuppressed("a", []string{"_accessed_time"})
	h.ConflictRaised("a", []string{"cart"})

	assert.Equal(t, 1.0, testutil.ToFloat64(h.events.WithLabelValues(EventCreated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.events.WithLabelValues(EventFlushed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.events.WithLabelValues(EventSuppressed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.events.WithLabelValues(EventRaised)))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.events.WithLabelValues(EventRemoved)))

	err = testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP app_ddbsession_flushed_attributes Attributes written per successful close.
# TYPE app_ddbsession_flushed_attributes histogram
app_ddbsession_flushed_attributes_bucket{le="1"} 1
app_ddbsession_flushed_attributes_bucket{le="2"} 2
app_ddbsession_flushed_attributes_bucket{le="4"} 2
app_ddbsession_flushed_attributes_bucket{le="8"} 2
app_ddbsession_flushed_attributes_bucket{le="16"} 2
app_ddbsession_flushed_attributes_bucket{le="32"} 2
app_ddbsession_flushed_attributes_bucket{le="+Inf"} 2
app_ddbsession_flushed_attributes_sum 3
app_ddbsession_flushed_attributes_count 2
`), "app_ddbsession_flushed_attributes")
	assert.NoError(t, err)
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "app")
	require.NoError(t, err)
	_, err = New(reg, "app")
	assert.Error(t, err)
}
