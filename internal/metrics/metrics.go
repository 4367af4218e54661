package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every syroctl collector. It is separate from the default
// registry so the textfile export contains only router metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RouterRequestsTotal counts router HTTP requests by method and outcome.
	RouterRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syroctl",
		Subsystem: "router",
		Name:      "requests_total",
		Help:      "Total HTTP requests sent to the router by method and outcome.",
	}, []string{"method", "outcome"})

	// RouterRequestDuration tracks router request latency, redirects included.
	RouterRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "syroctl",
		Subsystem: "router",
		Name:      "request_duration_seconds",
		Help:      "Router HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// LoginTotal counts login flow results.
	LoginTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syroctl",
		Name:      "login_total",
		Help:      "Login flow results (already_logged_in, logged_in, failed).",
	}, []string{"result"})

	// RebootTriggeredTimestamp is the unix time of the last reboot request.
	RebootTriggeredTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "syroctl",
		Name:      "reboot_triggered_timestamp_seconds",
		Help:      "Unix time at which the last reboot was triggered.",
	})
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"

	LoginResultAlreadyLoggedIn = "already_logged_in"
	LoginResultLoggedIn        = "logged_in"
	LoginResultFailed          = "failed"
)

// ObserveRequest records one router request.
func ObserveRequest(method string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	RouterRequestsTotal.WithLabelValues(method, outcome).Inc()
	RouterRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveLogin records the result of one login flow.
func ObserveLogin(result string) {
	LoginTotal.WithLabelValues(result).Inc()
}

// ObserveReboot records that a reboot request was sent at t.
func ObserveReboot(t time.Time) {
	RebootTriggeredTimestamp.Set(float64(t.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
