package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total status server HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "telectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Status server HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	connectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "session",
			Name:      "connect_attempts_total",
			Help:      "TCP connect attempts by result.",
		},
		[]string{"result"},
	)
	disconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "session",
			Name:      "disconnects_total",
			Help:      "Sessions ended by cause.",
		},
		[]string{"cause"},
	)
	sessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "telectl",
			Subsystem: "session",
			Name:      "state",
			Help:      "Current connection state (0 disconnected, 1 connecting, 2 connected, 3 closing).",
		},
	)
	backoffSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "telectl",
			Subsystem: "session",
			Name:      "backoff_seconds",
			Help:      "Most recent reconnect delay in seconds.",
		},
	)
	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "codec",
			Name:      "frames_total",
			Help:      "Decoded frames by command tag.",
		},
		[]string{"command"},
	)
	resyncBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "codec",
			Name:      "resync_bytes_total",
			Help:      "Bytes dropped while resynchronizing after corruption.",
		},
	)
	decodeWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "codec",
			Name:      "decode_warnings_total",
			Help:      "Payloads decoded with a warning, by command tag.",
		},
		[]string{"command"},
	)
	bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "session",
			Name:      "bytes_read_total",
			Help:      "Bytes read from the server.",
		},
	)
	sends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "telectl",
			Subsystem: "session",
			Name:      "sends_total",
			Help:      "Outbound commands by result.",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			connectAttempts, disconnects, sessionState, backoffSeconds,
			framesDecoded, resyncBytes, decodeWarnings, bytesRead, sends,
		)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordConnect(ok bool) {
	RegisterMetrics()
	result := "success"
	if !ok {
		result = "failure"
	}
	connectAttempts.WithLabelValues(result).Inc()
}

func RecordDisconnect(cause string) {
	RegisterMetrics()
	disconnects.WithLabelValues(cause).Inc()
}

func RecordState(state int) {
	RegisterMetrics()
	sessionState.Set(float64(state))
}

func RecordBackoff(delay time.Duration) {
	RegisterMetrics()
	backoffSeconds.Set(delay.Seconds())
}

func RecordFrame(command string) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(metricTag(command)).Inc()
}

func RecordResync(n int) {
	RegisterMetrics()
	resyncBytes.Add(float64(n))
}

func RecordDecodeWarning(command string) {
	RegisterMetrics()
	decodeWarnings.WithLabelValues(metricTag(command)).Inc()
}

func RecordRead(n int) {
	RegisterMetrics()
	bytesRead.Add(float64(n))
}

func RecordSend(ok bool) {
	RegisterMetrics()
	result := "success"
	if !ok {
		result = "failure"
	}
	sends.WithLabelValues(result).Inc()
}

// metricTag bounds label cardinality: text commands are server-defined and
// may be arbitrary.
func metricTag(command string) string {
	if len(command) == 0 || len(command) > 8 {
		return "other"
	}
	for i := 0; i < len(command); i++ {
		c := command[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != '_' {
			return "other"
		}
	}
	return command
}
