package patterns

import (
	"fmt"
	"math"
	"time"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

const rapidChangeWindow = 10 * time.Second
const rapidChangeMinRun = 3

// DetectRapidChange groups events by (capability, attribute) and flags
// any maximal run of at least 3 consecutive transitions where each is no
// more than 10s after the previous one.
func DetectRapidChange(in Input) []Pattern {
	groups := groupByCapabilityAttribute(in.Events)

	var out []Pattern
	for _, group := range groups {
		for _, run := range consecutiveRuns(group, rapidChangeWindow) {
			if len(run) < rapidChangeMinRun {
				continue
			}

			n := len(run)
			score := 1 - math.Exp(-float64(n)/3)
			severity := SeverityMedium
			if n > 4 {
				severity = SeverityHigh
			}

			out = append(out, Pattern{
				ID:          newPatternID(run[0].Time),
				DeviceID:    in.DeviceID,
				Type:        TypeRapidChange,
				Description: fmt.Sprintf("%d transitions of %s within %s", n, run[0].Attribute, rapidChangeWindow),
				Severity:    severity,
				Score:       score,
				Confidence:  score,
				Evidence:    toEventRefs(run),
				StartedAt:   run[0].Time,
				EndedAt:     run[n-1].Time,
			})
		}
	}
	return out
}

func groupByCapabilityAttribute(events []platform.DeviceEvent) map[string][]platform.DeviceEvent {
	groups := make(map[string][]platform.DeviceEvent)
	for _, ev := range events {
		key := string(ev.Capability) + "|" + ev.Attribute
		groups[key] = append(groups[key], ev)
	}
	return groups
}

// consecutiveRuns splits a chronologically sorted event slice into
// maximal runs where each consecutive pair is no more than window apart.
func consecutiveRuns(events []platform.DeviceEvent, window time.Duration) [][]platform.DeviceEvent {
	if len(events) == 0 {
		return nil
	}
	var runs [][]platform.DeviceEvent
	current := []platform.DeviceEvent{events[0]}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Sub(events[i-1].Time) <= window {
			current = append(current, events[i])
		} else {
			runs = append(runs, current)
			current = []platform.DeviceEvent{events[i]}
		}
	}
	return append(runs, current)
}
