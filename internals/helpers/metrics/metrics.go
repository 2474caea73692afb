// file: internals/helpers/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// AttendanceMarks: outcome = created|filled|duplicate|already_complete|rejected
	AttendanceMarks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolku",
		Subsystem: "attendance",
		Name:      "marks_total",
		Help:      "Attendance mark/check-in/check-out calls by operation and outcome.",
	}, []string{"op", "outcome"})

	// LedgerOps: op = record|amend|reverse|rebuild
	LedgerOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolku",
		Subsystem: "fees",
		Name:      "ledger_ops_total",
		Help:      "Fee ledger operations by op and outcome.",
	}, []string{"op", "outcome"})

	LedgerDrift = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "schoolku",
		Subsystem: "fees",
		Name:      "ledger_drift_students",
		Help:      "Students whose ledger disagreed with the payment stream at the last audit.",
	})

	SequenceIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolku",
		Subsystem: "sequences",
		Name:      "issued_total",
		Help:      "Human-readable IDs issued by kind.",
	}, []string{"kind"})

	AuditFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolku",
		Subsystem: "audit",
		Name:      "write_failures_total",
		Help:      "Audit entries that could not be written (swallowed).",
	})
)

// Registry khusus app (bukan default global) supaya test bisa bikin ulang.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		AttendanceMarks,
		LedgerOps,
		LedgerDrift,
		SequenceIssued,
		AuditFailures,
		collectors.NewGoCollector(),
	)
}
