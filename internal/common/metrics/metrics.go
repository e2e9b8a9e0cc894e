// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSynthesized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_notifications_synthesized_total",
			Help: "Total number of notifications produced by synthesis",
		},
		[]string{"type"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_notifications_delivered_total",
			Help: "Total number of notifications dispatched to the delivery sink",
		},
		[]string{"type"},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_delivery_failures_total",
			Help: "Total number of swallowed delivery sink failures",
		},
		[]string{"sink"},
	)

	NotificationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_notifications_expired_total",
			Help: "Total number of notifications pruned by the expiry sweep",
		},
	)

	ConflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_conflicts_detected_total",
			Help: "Total number of scheduling conflicts detected",
		},
		[]string{"kind"},
	)

	TimersArmed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_timers_armed",
			Help: "Number of currently armed notification timers",
		},
	)
)
