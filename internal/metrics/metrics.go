package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsTotal counts connection attempts by configuration source and status
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratus_connections_total",
			Help: "Total number of platform connection attempts",
		},
		[]string{"source", "status"},
	)

	// LoginsTotal counts platform logins by status
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratus_logins_total",
			Help: "Total number of platform logins",
		},
		[]string{"status"},
	)

	// SessionRenewalsTotal counts session renewal attempts by status
	SessionRenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratus_session_renewals_total",
			Help: "Total number of session renewal attempts",
		},
		[]string{"status"},
	)

	// OAuthHandshakesTotal counts OAuth handshake transitions by phase and status
	OAuthHandshakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratus_oauth_handshakes_total",
			Help: "Total number of OAuth handshake transitions",
		},
		[]string{"phase", "status"},
	)

	// APICallDuration tracks platform API call latency
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stratus_api_call_duration_seconds",
			Help:    "Platform API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
