package observability

import (
	"testing"
	"time"

	"github.com/danmuck/telectl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("telectl", "GET", "/health", 200, 12*time.Millisecond)
	RecordConnect(true)
	RecordConnect(false)
	RecordDisconnect("eof")
	RecordState(2)
	RecordBackoff(500 * time.Millisecond)
	RecordRead(128)
	RecordSend(false)

	before := testutil.ToFloat64(framesDecoded.WithLabelValues("A_R"))
	RecordFrame("A_R")
	require.Equal(t, before+1, testutil.ToFloat64(framesDecoded.WithLabelValues("A_R")))

	resyncBefore := testutil.ToFloat64(resyncBytes)
	RecordResync(3)
	require.Equal(t, resyncBefore+3, testutil.ToFloat64(resyncBytes))
	require.Equal(t, 2.0, testutil.ToFloat64(sessionState))

	warnBefore := testutil.ToFloat64(decodeWarnings.WithLabelValues("A_D"))
	RecordDecodeWarning("A_D")
	require.Equal(t, warnBefore+1, testutil.ToFloat64(decodeWarnings.WithLabelValues("A_D")))
}

func TestMetricTagBoundsCardinality(t *testing.T) {
	testlog.Start(t)
	require.Equal(t, "P_S", metricTag("P_S"))
	require.Equal(t, "A_D", metricTag("A_D"))
	require.Equal(t, "other", metricTag(""))
	require.Equal(t, "other", metricTag("lowercase"))
	require.Equal(t, "other", metricTag("VERY_LONG_TAG"))
}
