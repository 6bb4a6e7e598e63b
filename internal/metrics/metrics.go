package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_login_attempts_total",
		Help: "Total number of login attempts recorded, by result",
	}, []string{"result"})
	autoBlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_auto_blocks_total",
		Help: "Total number of IPs blocked by the failed-login detector",
	})
	autoUnblocksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_auto_unblocks_total",
		Help: "Total number of auto-blocks reverted, by source (timer, sweep)",
	}, []string{"source"})
	detectorErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_detector_errors_total",
		Help: "Total number of detector evaluations that failed",
	})
	blockedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_blocked_requests_total",
		Help: "Total number of API requests rejected because the client IP is blocked",
	})
	pendingUnblocks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warden_pending_unblocks",
		Help: "Number of in-process unblock timers currently armed",
	})
)

// Register registers Prometheus collectors. Call once per registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(loginAttemptsTotal, autoBlocksTotal, autoUnblocksTotal, detectorErrorsTotal, blockedRequestsTotal, pendingUnblocks)
}

// IncLoginAttempt counts a recorded attempt.
func IncLoginAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	loginAttemptsTotal.WithLabelValues(result).Inc()
}

// IncAutoBlock counts a detector block.
func IncAutoBlock() { autoBlocksTotal.Inc() }

// IncAutoUnblock counts a reverted auto-block.
func IncAutoUnblock(source string) { autoUnblocksTotal.WithLabelValues(source).Inc() }

// IncDetectorError counts a failed evaluation.
func IncDetectorError() { detectorErrorsTotal.Inc() }

// IncBlockedRequest counts a request rejected by the blocklist middleware.
func IncBlockedRequest() { blockedRequestsTotal.Inc() }

// SetPendingUnblocks publishes the number of armed unblock timers.
func SetPendingUnblocks(n int) { pendingUnblocks.Set(float64(n)) }
