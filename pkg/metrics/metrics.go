// Package metrics exposes prometheus counters and histograms for executions, steps,
// approvals and document rules.
package metrics

import (
	"sync"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "juris"

var (
	initOnce sync.Once

	executionsTotal   *prometheus.CounterVec
	stepsTotal        *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	approvalDecisions *prometheus.CounterVec
	rulesApplied      prometheus.Counter
	documentsTotal    *prometheus.CounterVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		executionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Workflow execution status transitions by status.",
			},
			[]string{"status"},
		)

		stepsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Step results by step type and status.",
			},
			[]string{"type", "status"},
		)

		stepDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of step handler calls in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		)

		approvalDecisions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "approval_decisions_total",
				Help:      "Approval task decisions by outcome.",
			},
			[]string{"status"},
		)

		rulesApplied = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_rules_applied_total",
				Help:      "Document rules whose conditions matched.",
			},
		)

		documentsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_processed_total",
				Help:      "Documents run through the rule engine by document type.",
			},
			[]string{"document_type"},
		)

		prometheus.MustRegister(
			executionsTotal,
			stepsTotal,
			stepDuration,
			approvalDecisions,
			rulesApplied,
			documentsTotal,
		)

		for _, status := range []models.ExecutionStatus{
			models.ExecutionStatusRunning,
			models.ExecutionStatusCompleted,
			models.ExecutionStatusFailed,
			models.ExecutionStatusCancelled,
			models.ExecutionStatusWaitingApproval,
		} {
			executionsTotal.WithLabelValues(string(status))
		}
	})
}

func IncExecutionStatus(status models.ExecutionStatus) {
	Init()
	executionsTotal.WithLabelValues(string(status)).Inc()
}

func ObserveStep(stepType models.StepType, status models.StepResultStatus, d time.Duration) {
	Init()
	stepsTotal.WithLabelValues(string(stepType), string(status)).Inc()

	if status != models.StepResultSkipped {
		stepDuration.WithLabelValues(string(stepType)).Observe(d.Seconds())
	}
}

func IncApprovalDecision(status models.TaskStatus) {
	Init()
	approvalDecisions.WithLabelValues(string(status)).Inc()
}

func ObserveDocument(documentType string, applied int) {
	Init()
	documentsTotal.WithLabelValues(documentType).Inc()
	rulesApplied.Add(float64(applied))
}
