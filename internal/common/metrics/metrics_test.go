package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveJob(t *testing.T) {
	before := testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test"))
	failedBefore := testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "RATING_QUERY_FAILED"))

	ObserveJob("metrics-test", time.Now(), "")
	ObserveJob("metrics-test", time.Now(), "RATING_QUERY_FAILED")

	assert.Equal(t, before+1, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "RATING_QUERY_FAILED")))
}
