package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementReviewsCreated()
	m.IncrementReviewsCreated()
	m.IncrementSearchCacheHit()
	m.IncrementAuthFailures()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReviewsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures))
}

func TestHTTPLatencyLabels(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	m.ObserveHTTPLatency("GET", "/api/restaurants/{id}", 200, 10*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestSeconds))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementReviewsCreated()
		m.ObserveSearch(time.Now())
		m.ObserveHTTPLatency("GET", "/", 200, time.Millisecond)
	})
}
