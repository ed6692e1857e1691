package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// AssessmentDecisions counts decision attempts by service, decision and result kind.
	AssessmentDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_decisions_total",
			Help: "Assessment accept/reject attempts by outcome",
		},
		[]string{"service", "decision", "outcome"},
	)

	AssessmentDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_decision_duration_seconds",
			Help:    "Time spent deciding an assessment, including the transaction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"decision"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Emails handed to SES by template and status",
		},
		[]string{"template", "status"},
	)

	DomainEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_published_total",
			Help: "Domain events published by type and status",
		},
		[]string{"event_type", "status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by route and status code",
		},
		[]string{"route", "status"},
	)
)
