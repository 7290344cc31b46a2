// Package patterns runs the independent behavioral detectors over a single
// device's event history and aggregates their output into a ranked,
// deduplicated list of findings.
package patterns

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid"

	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

// Type is the closed set of pattern classifications.
type Type string

const (
	TypeNormal             Type = "normal"
	TypeAutomationTrigger  Type = "automation_trigger"
	TypeRapidChange        Type = "rapid_change"
	TypeConnectivityGap    Type = "connectivity_gap"
	TypeBatteryDecline     Type = "battery_decline"
	TypeAutomationConflict Type = "automation_conflict"
	TypeAnomaly            Type = "anomaly"
)

// Severity is the closed set of severity tiers, ordered low to critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Pattern is a single typed, scored, severity-tagged finding with its
// supporting evidence.
type Pattern struct {
	ID          string              `json:"id"`
	DeviceID    platform.DeviceID   `json:"deviceId"`
	Type        Type                `json:"type"`
	Description string              `json:"description"`
	Severity    Severity            `json:"severity"`
	Score       float64             `json:"score"`
	Confidence  float64             `json:"confidence"`
	Evidence    []platform.EventRef `json:"evidence"`
	CommandRefs []string            `json:"commandRefs,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
	EndedAt     time.Time           `json:"endedAt"`
}

// idEntropy is shared across newPatternID calls; oklog/ulid's Monotonic
// wrapper makes ids that share a millisecond timestamp strictly
// increasing in the order they were generated.
var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newPatternID(at time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), idEntropy).String()
}

// Input bundles everything a detector needs for one device: its events in
// ascending time order, the gaps C3 already detected, and the outbound
// commands recorded for it by C4.
type Input struct {
	DeviceID platform.DeviceID
	Events   []platform.DeviceEvent
	Gaps     []coreevents.Gap
	Commands []tracker.CommandAttempt
	Now      time.Time
}

// Detector inspects an Input and returns zero or more patterns.
type Detector func(Input) []Pattern

// Detectors is the fixed, ordered chain of independent detectors run by
// Aggregate.
var Detectors = []Detector{
	DetectAutomationTrigger,
	DetectRapidChange,
	DetectConnectivityGap,
	DetectBatteryDecline,
	DetectAutomationConflict,
}

// Aggregate sorts input.Events ascending by time, runs every detector,
// deduplicates overlapping same-type windows keeping the highest-scoring
// instance, and ranks the survivors by severity, then score, then
// startedAt, all descending.
func Aggregate(input Input) []Pattern {
	sorted := make([]platform.DeviceEvent, len(input.Events))
	copy(sorted, input.Events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	input.Events = sorted

	var all []Pattern
	for _, detect := range Detectors {
		all = append(all, detect(input)...)
	}

	deduped := dedupeOverlapping(all)

	sort.Slice(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] > severityRank[b.Severity]
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.StartedAt.After(b.StartedAt)
	})
	return deduped
}

// dedupeOverlapping collapses patterns of the same type whose
// [startedAt, endedAt] windows overlap, keeping whichever has the higher
// score (ties keep the one that started earlier).
func dedupeOverlapping(patterns []Pattern) []Pattern {
	byType := make(map[Type][]Pattern)
	for _, p := range patterns {
		byType[p.Type] = append(byType[p.Type], p)
	}

	var out []Pattern
	for _, group := range byType {
		sort.Slice(group, func(i, j int) bool { return group[i].StartedAt.Before(group[j].StartedAt) })

		var kept []Pattern
		for _, p := range group {
			merged := false
			for i := range kept {
				if overlaps(kept[i], p) {
					if p.Score > kept[i].Score {
						kept[i] = p
					}
					merged = true
					break
				}
			}
			if !merged {
				kept = append(kept, p)
			}
		}
		out = append(out, kept...)
	}
	return out
}

func overlaps(a, b Pattern) bool {
	return !a.EndedAt.Before(b.StartedAt) && !b.EndedAt.Before(a.StartedAt)
}
