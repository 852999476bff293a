package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlask_questions_total",
			Help: "Total number of questions by outcome.",
		},
		[]string{"outcome"},
	)
	statementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlask_statements_total",
			Help: "Total number of extracted statements by execution status.",
		},
		[]string{"status"},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlask_llm_request_duration_seconds",
			Help:    "Language model request latency by call type.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"call", "status"},
	)
	statementDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlask_statement_duration_seconds",
			Help:    "Store execution latency per statement.",
			Buckets: prometheus.DefBuckets,
		},
	)
	archiveUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlask_archive_uploads_total",
			Help: "Total number of report archive uploads by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		statementsTotal,
		llmRequestDurationSeconds,
		statementDurationSeconds,
		archiveUploadsTotal,
	)
}

// Question outcomes.
const (
	OutcomeAnswered     = "answered"
	OutcomeUnanswerable = "unanswerable"
	OutcomeFailed       = "failed"
)

// Statement statuses.
const (
	StatementRows     = "rows"
	StatementNoOutput = "no_output"
	StatementFailed   = "failed"
	StatementRejected = "rejected"
)

func ObserveQuestion(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveStatement(status string, elapsed time.Duration) {
	statementsTotal.WithLabelValues(status).Inc()
	if status != StatementRejected {
		statementDurationSeconds.Observe(elapsed.Seconds())
	}
}

func ObserveLLMRequest(call string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	llmRequestDurationSeconds.WithLabelValues(call, status).Observe(elapsed.Seconds())
}

func ObserveArchiveUpload(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	archiveUploadsTotal.WithLabelValues(status).Inc()
}
