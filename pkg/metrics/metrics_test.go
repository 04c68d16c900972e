package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterIngestMetrics()
		RegisterIngestMetrics()
		RegisterSinkMetrics()
		RegisterSinkMetrics()
		RegisterCircuitBreakerMetrics()
		RegisterCircuitBreakerMetrics()
	})
}

func TestHelpers(t *testing.T) {
	before := testutil.ToFloat64(IngestPartsTotal.WithLabelValues("image"))
	IncPart("image")
	assert.Equal(t, before+1, testutil.ToFloat64(IngestPartsTotal.WithLabelValues("image")))

	before = testutil.ToFloat64(SinkWritesTotal.WithLabelValues("mongodb", "success"))
	ObserveSinkWrite("mongodb", "success", 12*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(SinkWritesTotal.WithLabelValues("mongodb", "success")))
}
