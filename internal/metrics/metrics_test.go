package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMark(t *testing.T) {
	before := testutil.ToFloat64(attendanceMarks.WithLabelValues("not_registered"))
	ObserveMark("not_registered")
	ObserveMark("not_registered")
	assert.Equal(t, before+2, testutil.ToFloat64(attendanceMarks.WithLabelValues("not_registered")))
}

func TestObserveRequestUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404"))
	ObserveRequest("", "GET", 404, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404")))
}
