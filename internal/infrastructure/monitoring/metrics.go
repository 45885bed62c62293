package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	RepaymentsTotal           *prometheus.CounterVec
	LoansCreatedTotal         prometheus.Counter
	OverdueNotificationsTotal prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_ledger_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		RepaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_ledger_repayments_total",
				Help: "Total number of repayment write attempts by outcome.",
			},
			[]string{"status"},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_ledger_loans_created_total",
				Help: "Total number of loans successfully created.",
			},
		),
		OverdueNotificationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_ledger_overdue_notifications_total",
				Help: "Total number of overdue loan notifications published.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordRepayment(status string) {
	Business.RepaymentsTotal.WithLabelValues(status).Inc()
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordOverdueNotification() {
	Business.OverdueNotificationsTotal.Inc()
}
