package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"kclsp/internal/metrics"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(metrics.DocumentChanges.WithLabelValues(metrics.ResultStale))
	metrics.DocumentChanges.WithLabelValues(metrics.ResultStale).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DocumentChanges.WithLabelValues(metrics.ResultStale)))
}

func TestObserveQuery(t *testing.T) {
	metrics.ObserveQuery("hover", time.Now())
	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.QueryDuration), 1)
}
