package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

func TestDetectAutomationTriggerSingleUnexplained(t *testing.T) {
	now := time.Now().UTC()
	in := Input{
		DeviceID: "d1",
		Events: []platform.DeviceEvent{
			{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now},
		},
	}

	patterns := DetectAutomationTrigger(in)
	require.Len(t, patterns, 1)
	assert.Equal(t, TypeAutomationTrigger, patterns[0].Type)
	assert.Equal(t, 0.70, patterns[0].Confidence)
	assert.Equal(t, SeverityMedium, patterns[0].Severity)
	assert.NotEmpty(t, patterns[0].Evidence)
}

func TestDetectAutomationTriggerSuppressedByPrecedingCommand(t *testing.T) {
	now := time.Now().UTC()
	in := Input{
		DeviceID: "d1",
		Events: []platform.DeviceEvent{
			{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now},
		},
		Commands: []tracker.CommandAttempt{
			{Capability: platform.CapabilitySwitch, Time: now.Add(-2 * time.Second)},
		},
	}

	patterns := DetectAutomationTrigger(in)
	assert.Empty(t, patterns)
}

func TestDetectAutomationTriggerEscalatesConfidenceWithCount(t *testing.T) {
	now := time.Now().UTC()
	in := Input{
		DeviceID: "d1",
		Events: []platform.DeviceEvent{
			{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now},
			{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "off", Time: now.Add(2 * time.Minute)},
			{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now.Add(4 * time.Minute)},
		},
	}

	patterns := DetectAutomationTrigger(in)
	require.Len(t, patterns, 1)
	assert.Equal(t, 0.95, patterns[0].Confidence)
	assert.Equal(t, SeverityHigh, patterns[0].Severity)
}

func TestDetectRapidChange(t *testing.T) {
	now := time.Now().UTC()
	events := make([]platform.DeviceEvent, 0, 4)
	for i := 0; i < 4; i++ {
		events = append(events, platform.DeviceEvent{
			Capability: platform.CapabilityDimmer,
			Attribute:  "level",
			Value:      i,
			Time:       now.Add(time.Duration(i) * 2 * time.Second),
		})
	}

	patterns := DetectRapidChange(Input{DeviceID: "d1", Events: events})
	require.Len(t, patterns, 1)
	assert.Equal(t, TypeRapidChange, patterns[0].Type)
	assert.Equal(t, SeverityHigh, patterns[0].Severity)
}

func TestDetectRapidChangeIgnoresShortRuns(t *testing.T) {
	now := time.Now().UTC()
	events := []platform.DeviceEvent{
		{Capability: platform.CapabilityDimmer, Attribute: "level", Time: now},
		{Capability: platform.CapabilityDimmer, Attribute: "level", Time: now.Add(2 * time.Second)},
	}
	patterns := DetectRapidChange(Input{DeviceID: "d1", Events: events})
	assert.Empty(t, patterns)
}

func TestDetectConnectivityGapHighVsCritical(t *testing.T) {
	now := time.Now().UTC()
	gaps := []coreevents.Gap{
		{Start: now.Add(-30 * time.Hour), End: now, DurationMs: (30 * time.Hour).Milliseconds(), Severity: coreevents.GapHigh},
		{Start: now.Add(-100 * time.Hour), End: now.Add(-28 * time.Hour), DurationMs: (72 * time.Hour).Milliseconds(), Severity: coreevents.GapHigh},
	}

	patterns := DetectConnectivityGap(Input{DeviceID: "d1", Gaps: gaps})
	require.Len(t, patterns, 2)
	for _, p := range patterns {
		assert.Equal(t, 1.0, p.Confidence)
	}
	assert.Equal(t, SeverityHigh, patterns[0].Severity)
	assert.Contains(t, patterns[0].Description, "30h")
	assert.Equal(t, SeverityCritical, patterns[1].Severity)
	assert.Contains(t, patterns[1].Description, "3d")
}

func TestDetectConnectivityGapIgnoresLowMedium(t *testing.T) {
	gaps := []coreevents.Gap{{Severity: coreevents.GapLow}, {Severity: coreevents.GapMedium}}
	patterns := DetectConnectivityGap(Input{DeviceID: "d1", Gaps: gaps})
	assert.Empty(t, patterns)
}

func TestDetectBatteryDeclineSeverityByLatestValue(t *testing.T) {
	now := time.Now().UTC()
	events := []platform.DeviceEvent{
		{Capability: platform.CapabilityBattery, Attribute: "battery", Value: 40.0, Time: now.Add(-10 * 24 * time.Hour)},
		{Capability: platform.CapabilityBattery, Attribute: "battery", Value: 5.0, Time: now},
	}

	patterns := DetectBatteryDecline(Input{DeviceID: "d1", Events: events})
	require.Len(t, patterns, 1)
	assert.Equal(t, SeverityCritical, patterns[0].Severity)
}

func TestDetectBatteryDeclineOmittedWhenFlatOrHigh(t *testing.T) {
	now := time.Now().UTC()
	events := []platform.DeviceEvent{
		{Capability: platform.CapabilityBattery, Attribute: "battery", Value: 90.0, Time: now.Add(-10 * 24 * time.Hour)},
		{Capability: platform.CapabilityBattery, Attribute: "battery", Value: 89.0, Time: now},
	}
	patterns := DetectBatteryDecline(Input{DeviceID: "d1", Events: events})
	assert.Empty(t, patterns)
}

func TestDetectAutomationConflictWithSourceMetadata(t *testing.T) {
	now := time.Now().UTC()
	events := []platform.DeviceEvent{
		{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now},
		{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "off", Time: now.Add(time.Second)},
	}
	cmds := []tracker.CommandAttempt{
		{Capability: platform.CapabilitySwitch, Time: now.Add(-time.Second), Source: "mobile_app"},
		{Capability: platform.CapabilitySwitch, Time: now.Add(500 * time.Millisecond), Source: "automation:evening"},
	}

	patterns := DetectAutomationConflict(Input{DeviceID: "d1", Events: events, Commands: cmds})
	require.Len(t, patterns, 1)
	assert.Equal(t, 1.0, patterns[0].Confidence)
	assert.Equal(t, SeverityHigh, patterns[0].Severity)
}

func TestDetectAutomationConflictWithoutSourceMetadataIsCapped(t *testing.T) {
	now := time.Now().UTC()
	events := []platform.DeviceEvent{
		{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now},
		{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "off", Time: now.Add(time.Second)},
	}

	patterns := DetectAutomationConflict(Input{DeviceID: "d1", Events: events})
	require.Len(t, patterns, 1)
	assert.LessOrEqual(t, patterns[0].Confidence, 0.5)
	assert.Equal(t, SeverityMedium, patterns[0].Severity)
}

func TestAggregateRanksBySeverityThenScore(t *testing.T) {
	now := time.Now().UTC()
	gaps := []coreevents.Gap{{Start: now.Add(-100 * time.Hour), End: now, DurationMs: (90 * time.Hour).Milliseconds(), Severity: coreevents.GapHigh}}
	events := []platform.DeviceEvent{
		{Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on", Time: now},
	}

	result := Aggregate(Input{DeviceID: "d1", Events: events, Gaps: gaps})
	require.Len(t, result, 2)
	assert.Equal(t, TypeConnectivityGap, result[0].Type, "critical connectivity_gap should rank first")
}

func TestAggregateDedupesOverlappingSameType(t *testing.T) {
	now := time.Now().UTC()
	gaps := []coreevents.Gap{
		{Start: now.Add(-50 * time.Hour), End: now.Add(-40 * time.Hour), DurationMs: (10 * time.Hour).Milliseconds(), Severity: coreevents.GapHigh},
		{Start: now.Add(-45 * time.Hour), End: now.Add(-30 * time.Hour), DurationMs: (15 * time.Hour).Milliseconds(), Severity: coreevents.GapHigh},
	}

	result := Aggregate(Input{DeviceID: "d1", Gaps: gaps})
	assert.Len(t, result, 1, "overlapping same-type windows should merge into one finding")
}
