// Package tracker records outbound device-command attempts in a bounded
// ring buffer and derives failure, rate-limit, and token-expiry
// statistics from it.
package tracker

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/metrics"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// FailureKind classifies why a command attempt failed.
type FailureKind string

const (
	FailureValidation            FailureKind = "validation"
	FailureNotFound              FailureKind = "not_found"
	FailureUnauthorized          FailureKind = "unauthorized"
	FailureCapabilityUnsupported FailureKind = "capability_unsupported"
	FailureRateLimited           FailureKind = "rate_limited"
	FailureNetwork               FailureKind = "network"
	FailureServer                FailureKind = "server"
	FailureUnknown               FailureKind = "unknown"
)

// ClassifyFailure maps a corerr.Kind returned by the adapter or validation
// layer onto the tracker's fixed failure taxonomy.
func ClassifyFailure(err error) FailureKind {
	ce, ok := err.(*corerr.Error)
	if !ok {
		return FailureUnknown
	}
	switch ce.Kind {
	case corerr.InvalidInput, corerr.InvalidTimeRange:
		return FailureValidation
	case corerr.DeviceNotFound, corerr.Ambiguous:
		return FailureNotFound
	case corerr.Unauthorized:
		return FailureUnauthorized
	case corerr.CapabilityUnsupported, corerr.CommandUnsupported:
		return FailureCapabilityUnsupported
	case corerr.RateLimited:
		return FailureRateLimited
	case corerr.AdapterTimeout, corerr.AdapterUnavailable:
		return FailureNetwork
	case corerr.AdapterOther, corerr.Internal:
		return FailureServer
	default:
		return FailureUnknown
	}
}

// CommandAttempt is a single record of an outbound device command.
type CommandAttempt struct {
	ID         string                 `json:"id"`
	DeviceID   platform.DeviceID      `json:"deviceId"`
	Capability platform.Capability    `json:"capability"`
	Command    string                 `json:"command"`
	Args       map[string]interface{} `json:"args,omitempty"`
	Success    bool                   `json:"success"`
	Failure    FailureKind            `json:"failure,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Endpoint   string                 `json:"endpoint,omitempty"`
	Source     string                 `json:"source,omitempty"`
	Time       time.Time              `json:"time"`
}

// RateLimitHit records a single rate-limit rejection.
type RateLimitHit struct {
	Time     time.Time `json:"time"`
	Endpoint string    `json:"endpoint,omitempty"`
}

// Stats summarizes the ring's contents over a trailing window.
type Stats struct {
	Total       int     `json:"total"`
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"successRate"`
}

// RateLimitStatus reports rate-limit activity over a trailing window.
type RateLimitStatus struct {
	Hits               int            `json:"hits"`
	LastHit            *time.Time     `json:"lastHit,omitempty"`
	ByEndpoint         map[string]int `json:"byEndpoint"`
	RemainingUnknown   bool           `json:"remainingUnknown"`
	EstimatedRemaining int            `json:"estimatedRemaining,omitempty"`
}

// TokenInfo is a caller-supplied description of a credential's lifetime,
// used to derive TokenStatus.
type TokenInfo struct {
	Created time.Time
	Expiry  time.Time
}

// TokenStatus reports a token's remaining lifetime in human terms.
type TokenStatus struct {
	Created      time.Time `json:"created"`
	Expiry       time.Time `json:"expiry"`
	Remaining    string    `json:"remaining"`
	ExpiringSoon bool      `json:"expiringSoon"`
}

// Tracker is a bounded, thread-safe ring buffer of command attempts.
type Tracker struct {
	mu          sync.RWMutex
	entries     []CommandAttempt
	capacity    int
	evictions   uint64
	rateLimits  []RateLimitHit
	windowLimit int // configured declared window size, 0 if unknown

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Tracker with the given ring capacity (C_MAX, spec default
// 1000).
func New(capacity int, logger *zap.Logger, m *metrics.Metrics) *Tracker {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Tracker{
		entries:  make([]CommandAttempt, 0, capacity),
		capacity: capacity,
		logger:   logger,
		metrics:  m,
	}
}

// Record appends a new attempt, evicting the oldest entry if the ring is
// full, and accounts for rate-limit hits. Every outbound command must
// call Record exactly once.
func (t *Tracker) Record(attempt CommandAttempt) {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.Time.IsZero() {
		attempt.Time = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) >= t.capacity {
		t.entries = t.entries[1:]
		t.evictions++
		if t.metrics != nil {
			t.metrics.RecordCommandRingEviction()
		}
	}
	t.entries = append(t.entries, attempt)

	if attempt.Failure == FailureRateLimited {
		t.rateLimits = append(t.rateLimits, RateLimitHit{Time: attempt.Time, Endpoint: attempt.Endpoint})
	}
	if t.metrics != nil && !attempt.Success {
		t.metrics.RecordCommandFailure(string(attempt.Failure))
	}
}

// FailedCommands returns the most recent limit failures, optionally
// restricted to a single device.
func (t *Tracker) FailedCommands(limit int, deviceID *platform.DeviceID) []CommandAttempt {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]CommandAttempt, 0, limit)
	for i := len(t.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		a := t.entries[i]
		if a.Success {
			continue
		}
		if deviceID != nil && a.DeviceID != *deviceID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// CommandsForDevice returns every recorded attempt (successful or not)
// for deviceID at or after since, used by the pattern detectors to
// correlate device-attribute transitions with outbound commands.
func (t *Tracker) CommandsForDevice(deviceID platform.DeviceID, since time.Time) []CommandAttempt {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []CommandAttempt
	for _, a := range t.entries {
		if a.DeviceID != deviceID {
			continue
		}
		if !since.IsZero() && a.Time.Before(since) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Stats returns totals over the trailing windowHours, or the whole ring
// if windowHours <= 0.
func (t *Tracker) Stats(windowHours int) Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Time{}
	if windowHours > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	}

	var s Stats
	for _, a := range t.entries {
		if !cutoff.IsZero() && a.Time.Before(cutoff) {
			continue
		}
		s.Total++
		if a.Success {
			s.Successes++
		} else {
			s.Failures++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Total)
	}
	return s
}

// RateLimitStatus reports rate-limit hits over the trailing windowHours
// (spec default 24).
func (t *Tracker) RateLimitStatus(windowHours int) RateLimitStatus {
	if windowHours <= 0 {
		windowHours = 24
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	status := RateLimitStatus{ByEndpoint: make(map[string]int), RemainingUnknown: t.windowLimit == 0}

	var last *time.Time
	for _, h := range t.rateLimits {
		if h.Time.Before(cutoff) {
			continue
		}
		status.Hits++
		if h.Endpoint != "" {
			status.ByEndpoint[h.Endpoint]++
		}
		ht := h.Time
		if last == nil || ht.After(*last) {
			last = &ht
		}
	}
	status.LastHit = last

	if t.windowLimit > 0 {
		remaining := t.windowLimit - status.Hits
		if remaining < 0 {
			remaining = 0
		}
		status.EstimatedRemaining = remaining
	}
	return status
}

// TokenStatusFor derives a human-facing remaining-lifetime summary for a
// credential described by info, evaluated against now.
func TokenStatusFor(info TokenInfo, now time.Time) TokenStatus {
	remaining := info.Expiry.Sub(now)
	return TokenStatus{
		Created:      info.Created,
		Expiry:       info.Expiry,
		Remaining:    formatRemaining(remaining),
		ExpiringSoon: remaining < 2*time.Hour,
	}
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	if d < time.Minute {
		return "less than a minute"
	}
	if d < time.Hour {
		return pluralize(int(d.Minutes()), "minute")
	}
	if d < 24*time.Hour {
		return pluralize(int(d.Hours()), "hour")
	}
	return pluralize(int(d.Hours()/24), "day")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
