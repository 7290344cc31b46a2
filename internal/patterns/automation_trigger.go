package patterns

import (
	"fmt"
	"time"

	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

const automationTriggerCorrelationWindow = 5 * time.Second
const automationTriggerClusterGap = time.Hour
const automationTriggerSubWindow = 10 * time.Minute

// DetectAutomationTrigger flags attribute transitions that occurred
// without a preceding outbound command within the correlation window,
// clustering consecutive unexplained transitions and scaling confidence
// with how many land within any 10-minute span of the cluster.
func DetectAutomationTrigger(in Input) []Pattern {
	var unexplained []platform.DeviceEvent
	for _, ev := range in.Events {
		if !precededByCommand(in.Commands, ev, automationTriggerCorrelationWindow) {
			unexplained = append(unexplained, ev)
		}
	}
	if len(unexplained) == 0 {
		return nil
	}

	clusters := clusterByGap(unexplained, automationTriggerClusterGap)

	var out []Pattern
	for _, cluster := range clusters {
		maxInSubWindow := maxCountInWindow(cluster, automationTriggerSubWindow)

		var confidence float64
		switch {
		case maxInSubWindow >= 3:
			confidence = 0.95
		case maxInSubWindow == 2:
			confidence = 0.85
		default:
			confidence = 0.70
		}

		severity := SeverityMedium
		if confidence >= 0.85 {
			severity = SeverityHigh
		}

		started := cluster[0].Time
		ended := cluster[len(cluster)-1].Time
		out = append(out, Pattern{
			ID:          newPatternID(started),
			DeviceID:    in.DeviceID,
			Type:        TypeAutomationTrigger,
			Description: fmt.Sprintf("%d attribute transition(s) occurred with no preceding outbound command within %s", len(cluster), automationTriggerCorrelationWindow),
			Severity:    severity,
			Score:       confidence,
			Confidence:  confidence,
			Evidence:    toEventRefs(cluster),
			StartedAt:   started,
			EndedAt:     ended,
		})
	}
	return out
}

// precededByCommand reports whether any command in cmds targeting ev's
// capability was issued in [ev.Time - window, ev.Time].
func precededByCommand(cmds []tracker.CommandAttempt, ev platform.DeviceEvent, window time.Duration) bool {
	for _, c := range cmds {
		if c.Capability != ev.Capability {
			continue
		}
		delta := ev.Time.Sub(c.Time)
		if delta >= 0 && delta <= window {
			return true
		}
	}
	return false
}

// clusterByGap groups a chronologically sorted event slice into maximal
// runs where consecutive events are no more than maxGap apart.
func clusterByGap(events []platform.DeviceEvent, maxGap time.Duration) [][]platform.DeviceEvent {
	if len(events) == 0 {
		return nil
	}
	var clusters [][]platform.DeviceEvent
	current := []platform.DeviceEvent{events[0]}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Sub(events[i-1].Time) <= maxGap {
			current = append(current, events[i])
		} else {
			clusters = append(clusters, current)
			current = []platform.DeviceEvent{events[i]}
		}
	}
	return append(clusters, current)
}

// maxCountInWindow returns the largest number of events in the cluster
// that fall within any window-sized trailing span.
func maxCountInWindow(cluster []platform.DeviceEvent, window time.Duration) int {
	best := 0
	for i := range cluster {
		count := 1
		for j := i - 1; j >= 0 && cluster[i].Time.Sub(cluster[j].Time) <= window; j-- {
			count++
		}
		if count > best {
			best = count
		}
	}
	return best
}

func toEventRefs(events []platform.DeviceEvent) []platform.EventRef {
	refs := make([]platform.EventRef, 0, len(events))
	for _, ev := range events {
		refs = append(refs, platform.EventRef{Time: ev.Time, Attribute: ev.Attribute, Value: ev.Value})
	}
	return refs
}
