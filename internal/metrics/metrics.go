package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	StatementCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlconsole_statements_total",
		Help: "Total number of SQL statements executed",
	}, []string{"kind", "status"})

	StatementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sqlconsole_statement_duration_seconds",
		Help:    "Time to execute a SQL statement in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"kind"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlconsole_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"path", "code"})
)

func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{StatementCount, StatementDuration, HTTPRequests} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func ObserveStatement(kind string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StatementCount.WithLabelValues(kind, status).Inc()
	StatementDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
