package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ThreadsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumwatch_threads_scanned_total",
		Help: "Threads processed per feed.",
	}, []string{"feed"})

	ScanErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumwatch_scan_errors_total",
		Help: "Per-thread scan failures per feed.",
	}, []string{"feed"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forumwatch_scan_duration_seconds",
		Help:    "Wall time of one full feed pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumwatch_notifications_sent_total",
		Help: "Notifications delivered per transport.",
	}, []string{"transport"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumwatch_notification_failures_total",
		Help: "Notification delivery failures per transport.",
	}, []string{"transport"})
)
