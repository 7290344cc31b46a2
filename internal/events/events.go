// Package events implements the event-history query engine: time-range
// parsing, retention clamping, adapter fetch with client-side filtering,
// connectivity-gap detection, and human-readable formatting.
package events

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/metrics"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// GapSeverity classifies an inter-arrival gap between consecutive events
// for the same device.
type GapSeverity string

const (
	GapLow    GapSeverity = "low"
	GapMedium GapSeverity = "medium"
	GapHigh   GapSeverity = "high"
)

// Gap records one inter-arrival interval flagged as notable.
type Gap struct {
	Start                   time.Time   `json:"start"`
	End                     time.Time   `json:"end"`
	DurationMs              int64       `json:"durationMs"`
	Severity                GapSeverity `json:"severity"`
	LikelyConnectivityIssue bool        `json:"likelyConnectivityIssue"`
}

// Metadata accompanies every query result.
type Metadata struct {
	TotalCount            int                    `json:"totalCount"`
	HasMore               bool                   `json:"hasMore"`
	ReachedRetentionLimit bool                   `json:"reachedRetentionLimit"`
	GapDetected           bool                   `json:"gapDetected"`
	LargestGapMs          int64                  `json:"largestGapMs"`
	AppliedFilters        map[string]interface{} `json:"appliedFilters"`
}

// Result is the full output of a Query call.
type Result struct {
	Events   []platform.DeviceEvent `json:"events"`
	Metadata Metadata               `json:"metadata"`
	Summary  string                 `json:"summary,omitempty"`
	Gaps     []Gap                  `json:"gaps"`
}

// Request describes a single history query.
type Request struct {
	DeviceID        platform.DeviceID
	LocationID      string
	Start           string
	End             string
	Limit           int
	OldestFirst     bool
	Capabilities    []platform.Capability
	Attributes      []string
	IncludeMetadata bool
	HumanReadable   bool
}

var relativeTokenRe = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseTimeRange resolves start/end tokens (each a relative "<N>[mhd]"
// token, an ISO-8601 instant, or an epoch-millisecond integer) against
// now, then clamps to the retention window.
func ParseTimeRange(startRaw, endRaw string, now time.Time, retentionDays int) (start, end time.Time, exceedsRetention bool, err error) {
	end = now
	if endRaw != "" {
		end, err = parseInstant(endRaw, now)
		if err != nil {
			return time.Time{}, time.Time{}, false, corerr.New(corerr.InvalidTimeRange, fmt.Sprintf("invalid end time %q", endRaw), nil)
		}
	}

	start = now.Add(-24 * time.Hour)
	if startRaw != "" {
		start, err = parseInstant(startRaw, now)
		if err != nil {
			return time.Time{}, time.Time{}, false, corerr.New(corerr.InvalidTimeRange, fmt.Sprintf("invalid start time %q", startRaw), nil)
		}
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, false, corerr.New(corerr.InvalidTimeRange, "start must be before end", map[string]interface{}{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})
	}

	retentionFloor := now.AddDate(0, 0, -retentionDays)
	if start.Before(retentionFloor) {
		start = retentionFloor
		exceedsRetention = true
	}

	return start, end, exceedsRetention, nil
}

func parseInstant(raw string, now time.Time) (time.Time, error) {
	if m := relativeTokenRe.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := m[2]
		switch unit {
		case "m":
			if n > 10080 {
				return time.Time{}, fmt.Errorf("relative minutes token %d exceeds 10080", n)
			}
			return now.Add(-time.Duration(n) * time.Minute), nil
		case "h":
			if n > 168 {
				return time.Time{}, fmt.Errorf("relative hours token %d exceeds 168", n)
			}
			return now.Add(-time.Duration(n) * time.Hour), nil
		case "d":
			if n > 7 {
				return time.Time{}, fmt.Errorf("relative days token %d exceeds 7", n)
			}
			return now.AddDate(0, 0, -n), nil
		}
	}

	if ms, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	t, parseErr := time.Parse(time.RFC3339, raw)
	if parseErr != nil {
		return time.Time{}, parseErr
	}
	return t, nil
}

// Engine queries device event history from the platform adapter.
type Engine struct {
	adapter       platform.Adapter
	retentionDays int
	defaultLimit  int
	maxLimit      int
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// New builds an Engine bound to the given adapter and configured limits.
func New(adapter platform.Adapter, retentionDays, defaultLimit, maxLimit int, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		adapter:       adapter,
		retentionDays: retentionDays,
		defaultLimit:  defaultLimit,
		maxLimit:      maxLimit,
		logger:        logger,
		metrics:       m,
	}
}

// Query resolves the time range, fetches events from the adapter, applies
// client-side filtering and the limit/order, detects gaps, and optionally
// renders human-readable text.
func (e *Engine) Query(ctx context.Context, req Request) (*Result, error) {
	if req.DeviceID == "" {
		return nil, corerr.New(corerr.InvalidInput, "deviceId is required", nil)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}

	now := time.Now().UTC()
	start, end, exceedsRetention, err := ParseTimeRange(req.Start, req.End, now, e.retentionDays)
	if err != nil {
		return nil, err
	}

	fetched, err := e.adapter.ListEvents(ctx, platform.ListEventsRequest{
		DeviceID:     req.DeviceID,
		Start:        start,
		End:          end,
		Capabilities: req.Capabilities,
		Attributes:   req.Attributes,
		Limit:        limit,
		OldestFirst:  req.OldestFirst,
		LocationID:   req.LocationID,
	})
	if err != nil {
		return nil, err
	}

	filtered := filterEvents(fetched, req.Capabilities, req.Attributes)
	sort.Slice(filtered, func(i, j int) bool {
		if req.OldestFirst {
			return filtered[i].Time.Before(filtered[j].Time)
		}
		return filtered[i].Time.After(filtered[j].Time)
	})

	totalCount := len(filtered)
	hasMore := totalCount > limit
	if hasMore {
		filtered = filtered[:limit]
	}

	gaps, largestGapMs := detectGaps(filtered)

	meta := Metadata{
		TotalCount:            totalCount,
		HasMore:               hasMore,
		ReachedRetentionLimit: exceedsRetention,
		GapDetected:           len(gaps) > 0,
		LargestGapMs:          largestGapMs,
		AppliedFilters: map[string]interface{}{
			"start":        start.Format(time.RFC3339),
			"end":          end.Format(time.RFC3339),
			"capabilities": req.Capabilities,
			"attributes":   req.Attributes,
		},
	}

	result := &Result{Events: filtered, Metadata: meta, Gaps: gaps}
	if req.HumanReadable {
		result.Summary = summarize(filtered)
	}
	return result, nil
}

func filterEvents(events []platform.DeviceEvent, capabilities []platform.Capability, attributes []string) []platform.DeviceEvent {
	if len(capabilities) == 0 && len(attributes) == 0 {
		return events
	}

	capSet := make(map[platform.Capability]struct{}, len(capabilities))
	for _, c := range capabilities {
		capSet[c] = struct{}{}
	}
	attrSet := make(map[string]struct{}, len(attributes))
	for _, a := range attributes {
		attrSet[a] = struct{}{}
	}

	out := make([]platform.DeviceEvent, 0, len(events))
	for _, ev := range events {
		if len(capSet) > 0 {
			if _, ok := capSet[ev.Capability]; !ok {
				continue
			}
		}
		if len(attrSet) > 0 {
			if _, ok := attrSet[ev.Attribute]; !ok {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// detectGaps scans events in chronological order (regardless of the
// result's display order) and classifies inter-arrival gaps.
func detectGaps(events []platform.DeviceEvent) ([]Gap, int64) {
	if len(events) < 2 {
		return nil, 0
	}

	chrono := make([]platform.DeviceEvent, len(events))
	copy(chrono, events)
	sort.Slice(chrono, func(i, j int) bool { return chrono[i].Time.Before(chrono[j].Time) })

	var gaps []Gap
	var largest int64
	for i := 1; i < len(chrono); i++ {
		d := chrono[i].Time.Sub(chrono[i-1].Time)
		ms := d.Milliseconds()

		var severity GapSeverity
		switch {
		case d < time.Hour:
			continue
		case d < 6*time.Hour:
			severity = GapLow
		case d < 24*time.Hour:
			severity = GapMedium
		default:
			severity = GapHigh
		}

		if ms > largest {
			largest = ms
		}
		gaps = append(gaps, Gap{
			Start:                   chrono[i-1].Time,
			End:                     chrono[i].Time,
			DurationMs:              ms,
			Severity:                severity,
			LikelyConnectivityIssue: severity == GapHigh,
		})
	}
	return gaps, largest
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

func splitCamelCase(s string) string {
	spaced := camelBoundary.ReplaceAllString(s, "$1 $2")
	runes := []rune(spaced)
	if len(runes) == 0 {
		return spaced
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// formatEvent renders an event's text per the humanReadable rules:
// platform-provided text wins, else "<attribute>: <value><unit?>" with
// the attribute camelCase-split; component is shown only when not "main".
func formatEvent(ev platform.DeviceEvent) string {
	var body string
	if ev.Text != "" {
		body = ev.Text
	} else {
		attr := splitCamelCase(ev.Attribute)
		body = fmt.Sprintf("%s: %v%s", attr, ev.Value, ev.Unit)
	}
	if ev.Component != "" && ev.Component != "main" {
		body = fmt.Sprintf("[%s] %s", ev.Component, body)
	}
	return body
}

func summarize(events []platform.DeviceEvent) string {
	if len(events) == 0 {
		return "No events in the requested range."
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s — %s", ev.Time.Format(time.RFC3339), formatEvent(ev)))
	}
	return strings.Join(lines, "\n")
}
