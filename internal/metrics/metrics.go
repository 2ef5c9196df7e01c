package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payguard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	AgentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payguard_agents_created_total",
			Help: "Total agents created",
		},
	)

	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_requests_submitted_total",
			Help: "Total payment requests submitted",
		},
		[]string{"outcome"}, // "auto_approved" or "pending"
	)

	RequestsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_requests_decided_total",
			Help: "Total owner decisions on pending requests",
		},
		[]string{"action"},
	)

	SettlementAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_settlement_attempts_total",
			Help: "Total settlement gateway attempts",
		},
		[]string{"result"}, // "settled" or "failed"
	)

	NotificationsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payguard_notifications_emitted_total",
			Help: "Total notifications emitted",
		},
	)
)
