package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	statementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "db",
			Name:      "statements_total",
			Help:      "Total number of executed SQL statements",
		},
		[]string{"dialect", "op", "status"},
	)

	statementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Subsystem: "db",
			Name:      "statement_duration_seconds",
			Help:      "SQL statement duration in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"dialect", "op"},
	)
)

// RegisterMetrics registers the statement collectors with reg. Registering
// twice is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{statementsTotal, statementDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func observeStatement(dialect, op string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	statementsTotal.WithLabelValues(dialect, op, status).Inc()
	statementDuration.WithLabelValues(dialect, op).Observe(elapsed.Seconds())
}
