package telemetry

import (
	"net/http"
	"net/http/httptrace"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(recordsEmitted)
	prometheus.MustRegister(sinkWriteErrors)
	prometheus.MustRegister(sinkWriteDuration)
	prometheus.MustRegister(httpInFlight)
	prometheus.MustRegister(httpDuration)
	prometheus.MustRegister(httpQueueTime)
}

var (
	// Fixture metrics

	recordsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h2ofixture_records_emitted_total",
			Help: "Records emitted by spout instances",
		},
		[]string{"instance"},
	)

	sinkWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h2ofixture_sink_write_errors_total",
			Help: "Failed sink writes by sink type and retryability",
		},
		[]string{"sink", "retryable"},
	)

	sinkWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "h2ofixture_sink_write_duration_seconds",
			Help:    "Sink write duration distributions",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"sink"},
	)

	// Transport level metrics

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_client_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		},
		[]string{"client"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_client_duration_seconds",
			Help:    "HTTP request duration distributions",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"client", "status"},
	)

	httpQueueTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_client_queue_seconds",
			Help:    "Time spent waiting before request starts",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"client"},
	)
)

// RecordEmitted counts one record emitted by the named spout instance.
func RecordEmitted(instance string) {
	recordsEmitted.WithLabelValues(instance).Inc()
}

// ObserveSinkWrite records a sink write's duration and, if it failed, its
// error class.
func ObserveSinkWrite(sink string, d time.Duration, err error, retryable bool) {
	sinkWriteDuration.WithLabelValues(sink).Observe(d.Seconds())
	if err != nil {
		sinkWriteErrors.WithLabelValues(sink, strconv.FormatBool(retryable)).Inc()
	}
}

type MetricsTransport struct {
	name     string
	wrapped  http.RoundTripper
	inFlight int64
}

func NewMetricsTransport(name string, wrapped http.RoundTripper) *MetricsTransport {
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return &MetricsTransport{
		name:    name,
		wrapped: wrapped,
	}
}

func (t *MetricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	httpInFlight.WithLabelValues(t.name).Set(float64(atomic.AddInt64(&t.inFlight, 1)))
	defer func() {
		httpInFlight.WithLabelValues(t.name).Set(float64(atomic.AddInt64(&t.inFlight, -1)))
	}()

	trace := &httptrace.ClientTrace{
		GetConn: func(hostPort string) {
			httpQueueTime.WithLabelValues(t.name).Observe(time.Since(start).Seconds())
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	httpDuration.WithLabelValues(t.name, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	return resp, nil
}
