package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Error stages.
const (
	stageAccept = "accept"
	stageRead   = "read"
	stageWrite  = "write"
)

var (
	connectionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "svcboot_status_connections_accepted_total",
			Help: "Total number of connections accepted by the status listener",
		},
	)

	responsesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "svcboot_status_responses_total",
			Help: "Total number of status responses written",
		},
	)

	connectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svcboot_status_connection_errors_total",
			Help: "Total number of status connection failures by stage",
		},
		[]string{"stage"},
	)

	busyWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "svcboot_status_busy_workers",
			Help: "Current number of status workers serving a connection",
		},
	)
)
