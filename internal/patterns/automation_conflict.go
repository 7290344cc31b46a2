package patterns

import (
	"fmt"
	"time"

	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

const automationConflictWindow = 2 * time.Second

// DetectAutomationConflict flags pairs of opposing transitions on the
// same attribute within 2s of each other. When command-source metadata
// is available and the two transitions trace back to different sources,
// confidence is 1.0. Without source metadata the finding is still
// reported, but capped at confidence 0.5 and never escalated past
// medium severity, per the no-speculative-elevation rule.
func DetectAutomationConflict(in Input) []Pattern {
	groups := groupByCapabilityAttribute(in.Events)

	var out []Pattern
	for _, group := range groups {
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			if cur.Time.Sub(prev.Time) > automationConflictWindow {
				continue
			}
			if !opposes(prev.Value, cur.Value) {
				continue
			}

			prevSource := sourceFor(in.Commands, prev)
			curSource := sourceFor(in.Commands, cur)

			var pattern Pattern
			if prevSource != "" && curSource != "" {
				confidence := 0.5
				if prevSource != curSource {
					confidence = 1.0
				}
				pattern = Pattern{
					Description: fmt.Sprintf("opposing %s transitions within %s, sources %q then %q", cur.Attribute, automationConflictWindow, prevSource, curSource),
					Confidence:  confidence,
					Score:       confidence,
					Severity:    severityForConflict(confidence),
				}
			} else {
				pattern = Pattern{
					Description: fmt.Sprintf("opposing %s transitions within %s; command source metadata unavailable, conflict unconfirmed", cur.Attribute, automationConflictWindow),
					Confidence:  0.5,
					Score:       0.5,
					Severity:    SeverityMedium,
				}
			}

			pattern.ID = newPatternID(prev.Time)
			pattern.DeviceID = in.DeviceID
			pattern.Type = TypeAutomationConflict
			pattern.Evidence = toEventRefs([]platform.DeviceEvent{prev, cur})
			pattern.StartedAt = prev.Time
			pattern.EndedAt = cur.Time
			out = append(out, pattern)
		}
	}
	return out
}

func severityForConflict(confidence float64) Severity {
	if confidence >= 1.0 {
		return SeverityHigh
	}
	return SeverityMedium
}

// opposes reports whether two values represent an on/off-style reversal.
func opposes(a, b interface{}) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return false
	}
	pairs := [][2]string{{"on", "off"}, {"open", "closed"}, {"locked", "unlocked"}}
	for _, p := range pairs {
		if (as == p[0] && bs == p[1]) || (as == p[1] && bs == p[0]) {
			return true
		}
	}
	return false
}

// sourceFor finds the nearest preceding command within the
// automation-trigger correlation window and returns its source tag, or
// "" if none is recorded.
func sourceFor(cmds []tracker.CommandAttempt, ev platform.DeviceEvent) string {
	best := time.Duration(-1)
	source := ""
	for _, c := range cmds {
		if c.Capability != ev.Capability || c.Source == "" {
			continue
		}
		delta := ev.Time.Sub(c.Time)
		if delta < 0 || delta > automationTriggerCorrelationWindow {
			continue
		}
		if best == -1 || delta < best {
			best = delta
			source = c.Source
		}
	}
	return source
}
