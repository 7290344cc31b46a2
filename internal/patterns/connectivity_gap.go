package patterns

import (
	"fmt"
	"time"

	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

const connectivityGapCriticalThreshold = 72 * time.Hour

// DetectConnectivityGap turns every high-severity gap already computed by
// the event-history engine into a connectivity_gap pattern. It does not
// recompute gaps itself; C3 owns that classification.
func DetectConnectivityGap(in Input) []Pattern {
	var out []Pattern
	for _, gap := range in.Gaps {
		if gap.Severity != coreevents.GapHigh {
			continue
		}

		duration := time.Duration(gap.DurationMs) * time.Millisecond
		severity := SeverityHigh
		if duration >= connectivityGapCriticalThreshold {
			severity = SeverityCritical
		}

		out = append(out, Pattern{
			ID:          newPatternID(gap.Start),
			DeviceID:    in.DeviceID,
			Type:        TypeConnectivityGap,
			Description: fmt.Sprintf("no events reported for %s, last seen %s", formatDuration(duration), gap.Start.Format(time.RFC3339)),
			Severity:    severity,
			Score:       1.0,
			Confidence:  1.0,
			Evidence: []platform.EventRef{
				{Time: gap.Start, Attribute: "lastSeen"},
				{Time: gap.End, Attribute: "reconnected"},
			},
			StartedAt: gap.Start,
			EndedAt:   gap.End,
		})
	}
	return out
}

// formatDuration renders d in the same compact relative-token style
// ("30h", "2d") that event queries accept as a start/end window, rounded
// down to the nearest whole unit.
func formatDuration(d time.Duration) string {
	hours := int64(d.Hours())
	if hours >= 24 && hours%24 == 0 {
		return fmt.Sprintf("%dd", hours/24)
	}
	return fmt.Sprintf("%dh", hours)
}
