package patterns

import (
	"fmt"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

const batteryDeclineSlopeThreshold = -1.0 // percent per day

// DetectBatteryDecline fits a linear regression of battery level against
// time for the device's battery samples in the window. A slope at or
// below -1%/day is reported as a decline, severity keyed to the latest
// observed value.
func DetectBatteryDecline(in Input) []Pattern {
	var samples []platform.DeviceEvent
	for _, ev := range in.Events {
		if ev.Capability == platform.CapabilityBattery && ev.Attribute == "battery" {
			if _, ok := toFloat(ev.Value); ok {
				samples = append(samples, ev)
			}
		}
	}
	if len(samples) < 2 {
		return nil
	}

	slope, ok := regressSlopePerDay(samples)
	if !ok || slope > batteryDeclineSlopeThreshold {
		return nil
	}

	latest, _ := toFloat(samples[len(samples)-1].Value)
	var severity Severity
	switch {
	case latest < 10:
		severity = SeverityCritical
	case latest < 20:
		severity = SeverityHigh
	case latest < 30:
		severity = SeverityMedium
	default:
		return nil
	}

	confidence := 1.0
	return []Pattern{{
		ID:          newPatternID(samples[0].Time),
		DeviceID:    in.DeviceID,
		Type:        TypeBatteryDecline,
		Description: fmt.Sprintf("battery declining at %.2f%%/day, currently %.0f%%", -slope, latest),
		Severity:    severity,
		Score:       confidence,
		Confidence:  confidence,
		Evidence:    toEventRefs(samples),
		StartedAt:   samples[0].Time,
		EndedAt:     samples[len(samples)-1].Time,
	}}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// regressSlopePerDay fits y = a + b*x by ordinary least squares, x in
// days since the first sample, and returns b.
func regressSlopePerDay(samples []platform.DeviceEvent) (float64, bool) {
	n := float64(len(samples))
	if n < 2 {
		return 0, false
	}

	t0 := samples[0].Time
	var sumX, sumY, sumXY, sumXX float64
	for _, ev := range samples {
		x := ev.Time.Sub(t0).Hours() / 24
		y, _ := toFloat(ev.Value)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return slope, true
}
