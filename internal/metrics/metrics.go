// Package metrics provides metrics collection and reporting for the MCP server.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metric labels.
const (
	labelTool     = "tool"
	labelStatus   = "status"
	labelType     = "type"
	labelSeverity = "severity"
)

// Metrics tracks operational metrics with both internal counters and Prometheus metrics.
type Metrics struct {
	totalRequests      atomic.Uint64
	successfulRequests atomic.Uint64
	failedRequests     atomic.Uint64
	retriedRequests    atomic.Uint64

	totalLatency atomic.Int64
	latencyCount atomic.Uint64
	maxLatency   atomic.Int64
	minLatency   atomic.Int64

	rateLimitHits atomic.Uint64

	errorsMu       sync.RWMutex
	errorsByStatus map[int]uint64

	toolsMu     sync.RWMutex
	toolUsage   map[string]uint64
	toolErrors  map[string]uint64
	toolLatency map[string]int64

	logger *zap.Logger

	promRequestsTotal      prometheus.Counter
	promRequestsSuccessful prometheus.Counter
	promRequestsFailed     prometheus.Counter
	promRequestsRetried    prometheus.Counter
	promRateLimitHits      prometheus.Counter
	promRequestLatency     prometheus.Histogram
	promErrorsByStatus     *prometheus.CounterVec
	promToolCalls          *prometheus.CounterVec
	promToolErrors         *prometheus.CounterVec
	promToolLatency        *prometheus.HistogramVec

	// Domain-specific metrics (C4/C5/C2).
	promPatternsDetected  *prometheus.CounterVec // labels: type, severity
	promCommandFailures   *prometheus.CounterVec // labels: type (failure kind)
	promResolveLatency    prometheus.Histogram
	promCommandRingEvicts prometheus.Counter
}

// New creates a new metrics tracker with Prometheus integration.
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		errorsByStatus: make(map[int]uint64),
		toolUsage:      make(map[string]uint64),
		toolErrors:     make(map[string]uint64),
		toolLatency:    make(map[string]int64),
		logger:         logger,

		promRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "adapter_requests_total",
			Help:      "Total number of requests made to the platform adapter",
		}),
		promRequestsSuccessful: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "adapter_requests_successful_total",
			Help:      "Total number of successful adapter requests",
		}),
		promRequestsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "adapter_requests_failed_total",
			Help:      "Total number of failed adapter requests",
		}),
		promRequestsRetried: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "adapter_requests_retried_total",
			Help:      "Total number of retried adapter requests",
		}),
		promRateLimitHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "adapter_rate_limit_hits_total",
			Help:      "Total number of rate limit hits observed from the platform adapter",
		}),
		promRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "devicecore",
			Name:      "adapter_request_latency_seconds",
			Help:      "Adapter request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		promErrorsByStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "adapter_errors_by_status_total",
			Help:      "Adapter errors by HTTP status code",
		}, []string{labelStatus}),

		promToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls, labeled by tool name",
		}, []string{labelTool}),
		promToolErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "tool_errors_total",
			Help:      "Total number of tool errors, labeled by tool name",
		}, []string{labelTool}),
		promToolLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devicecore",
			Name:      "tool_latency_seconds",
			Help:      "Tool execution latency in seconds, labeled by tool name",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{labelTool}),

		promPatternsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "patterns_detected_total",
			Help:      "Patterns emitted by the pattern detector, labeled by type and severity",
		}, []string{labelType, labelSeverity}),
		promCommandFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "command_failures_total",
			Help:      "Command attempts recorded as failures, labeled by failure kind",
		}, []string{labelType}),
		promResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "devicecore",
			Name:      "registry_resolve_latency_seconds",
			Help:      "Device registry resolve() latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		promCommandRingEvicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "devicecore",
			Name:      "command_ring_evictions_total",
			Help:      "Total number of command attempts evicted from the bounded ring buffer",
		}),
	}

	m.minLatency.Store(int64(time.Hour))

	return m
}

// RecordRequest records an adapter request (both internal counters and Prometheus).
func (m *Metrics) RecordRequest(success bool, latency time.Duration, statusCode int) {
	m.totalRequests.Add(1)
	m.promRequestsTotal.Inc()
	m.promRequestLatency.Observe(latency.Seconds())

	if success {
		m.successfulRequests.Add(1)
		m.promRequestsSuccessful.Inc()
	} else {
		m.failedRequests.Add(1)
		m.promRequestsFailed.Inc()
		m.recordErrorStatus(statusCode)
	}

	m.recordLatency(latency)
}

// RecordRetry records a retry attempt.
func (m *Metrics) RecordRetry() {
	m.retriedRequests.Add(1)
	m.promRequestsRetried.Inc()
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit() {
	m.rateLimitHits.Add(1)
	m.promRateLimitHits.Inc()
}

// RecordToolExecution records tool usage (both internal counters and Prometheus).
func (m *Metrics) RecordToolExecution(toolName string, success bool, latency time.Duration) {
	m.toolsMu.Lock()
	m.toolUsage[toolName]++
	if !success {
		m.toolErrors[toolName]++
	}
	if latency > 0 && m.toolUsage[toolName] > 0 {
		currentLatency := m.toolLatency[toolName]
		count := float64(m.toolUsage[toolName])
		avgLatency := (float64(currentLatency)*(count-1) + float64(latency.Microseconds())) / count
		m.toolLatency[toolName] = int64(avgLatency)
	}
	m.toolsMu.Unlock()

	m.promToolCalls.WithLabelValues(toolName).Inc()
	m.promToolLatency.WithLabelValues(toolName).Observe(latency.Seconds())
	if !success {
		m.promToolErrors.WithLabelValues(toolName).Inc()
	}
}

// RecordPattern records a pattern emitted by the detector (C5).
func (m *Metrics) RecordPattern(patternType, severity string) {
	m.promPatternsDetected.WithLabelValues(patternType, severity).Inc()
}

// RecordCommandFailure records a classified command failure (C4).
func (m *Metrics) RecordCommandFailure(failureKind string) {
	m.promCommandFailures.WithLabelValues(failureKind).Inc()
}

// RecordResolveLatency records the latency of a registry resolve() call (C2).
func (m *Metrics) RecordResolveLatency(latency time.Duration) {
	m.promResolveLatency.Observe(latency.Seconds())
}

// RecordCommandRingEviction records a ring-buffer eviction (C4).
func (m *Metrics) RecordCommandRingEviction() {
	m.promCommandRingEvicts.Inc()
}

func (m *Metrics) recordLatency(latency time.Duration) {
	latencyUs := latency.Microseconds()

	m.totalLatency.Add(latencyUs)
	m.latencyCount.Add(1)

	for {
		currentMax := m.maxLatency.Load()
		if latencyUs <= currentMax {
			break
		}
		if m.maxLatency.CompareAndSwap(currentMax, latencyUs) {
			break
		}
	}

	for {
		currentMin := m.minLatency.Load()
		if latencyUs >= currentMin {
			break
		}
		if m.minLatency.CompareAndSwap(currentMin, latencyUs) {
			break
		}
	}
}

func (m *Metrics) recordErrorStatus(statusCode int) {
	if statusCode == 0 {
		return
	}
	m.errorsMu.Lock()
	m.errorsByStatus[statusCode]++
	m.errorsMu.Unlock()
	m.promErrorsByStatus.WithLabelValues(fmt.Sprintf("%d", statusCode)).Inc()
}

// GetStats returns current statistics.
func (m *Metrics) GetStats() Stats {
	m.errorsMu.RLock()
	errorsByStatus := make(map[int]uint64, len(m.errorsByStatus))
	for k, v := range m.errorsByStatus {
		errorsByStatus[k] = v
	}
	m.errorsMu.RUnlock()

	m.toolsMu.RLock()
	toolUsage := make(map[string]uint64, len(m.toolUsage))
	toolErrors := make(map[string]uint64, len(m.toolErrors))
	toolLatency := make(map[string]time.Duration, len(m.toolLatency))
	for k, v := range m.toolUsage {
		toolUsage[k] = v
	}
	for k, v := range m.toolErrors {
		toolErrors[k] = v
	}
	for k, v := range m.toolLatency {
		toolLatency[k] = time.Duration(v) * time.Microsecond
	}
	m.toolsMu.RUnlock()

	totalReq := m.totalRequests.Load()
	latencyCount := m.latencyCount.Load()

	var avgLatency time.Duration
	if latencyCount > 0 {
		avgLatencyMicros := float64(m.totalLatency.Load()) / float64(latencyCount)
		avgLatency = time.Duration(avgLatencyMicros) * time.Microsecond
	}

	return Stats{
		TotalRequests:      totalReq,
		SuccessfulRequests: m.successfulRequests.Load(),
		FailedRequests:     m.failedRequests.Load(),
		RetriedRequests:    m.retriedRequests.Load(),
		RateLimitHits:      m.rateLimitHits.Load(),
		AverageLatency:     avgLatency,
		MaxLatency:         time.Duration(m.maxLatency.Load()) * time.Microsecond,
		MinLatency:         time.Duration(m.minLatency.Load()) * time.Microsecond,
		ErrorsByStatus:     errorsByStatus,
		ToolUsage:          toolUsage,
		ToolErrors:         toolErrors,
		ToolLatency:        toolLatency,
	}
}

// LogStats logs current statistics.
func (m *Metrics) LogStats() {
	stats := m.GetStats()

	var errorRate float64
	if stats.TotalRequests > 0 {
		errorRate = float64(stats.FailedRequests) / float64(stats.TotalRequests) * 100
	}

	m.logger.Info("Operational metrics",
		zap.Uint64("total_requests", stats.TotalRequests),
		zap.Uint64("successful_requests", stats.SuccessfulRequests),
		zap.Uint64("failed_requests", stats.FailedRequests),
		zap.Float64("error_rate_pct", errorRate),
		zap.Uint64("retried_requests", stats.RetriedRequests),
		zap.Uint64("rate_limit_hits", stats.RateLimitHits),
		zap.Duration("avg_latency", stats.AverageLatency),
		zap.Duration("max_latency", stats.MaxLatency),
		zap.Duration("min_latency", stats.MinLatency),
		zap.Any("errors_by_status", stats.ErrorsByStatus),
		zap.Any("tool_usage", stats.ToolUsage),
	)
}

// Stats represents current metrics.
type Stats struct {
	TotalRequests      uint64
	SuccessfulRequests uint64
	FailedRequests     uint64
	RetriedRequests    uint64
	RateLimitHits      uint64
	AverageLatency     time.Duration
	MaxLatency         time.Duration
	MinLatency         time.Duration
	ErrorsByStatus     map[int]uint64
	ToolUsage          map[string]uint64
	ToolErrors         map[string]uint64
	ToolLatency        map[string]time.Duration
}

// GetPrometheusRegistry returns the default Prometheus registry.
func GetPrometheusRegistry() *prometheus.Registry {
	return prometheus.DefaultRegisterer.(*prometheus.Registry)
}
