// Package diagnostics assembles a per-device diagnostic report by
// resolving the device, pulling its recent event history, running the
// behavioral detectors, and binding evidence-backed recommendations from
// a static catalog.
package diagnostics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/patterns"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/registry"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

// State names the report-generation state machine's current step.
type State string

const (
	StateResolving    State = "resolving"
	StateFetching     State = "fetching"
	StateDetecting    State = "detecting"
	StateAssembling   State = "assembling"
	StateDone         State = "done"
	StateDegradedDone State = "degraded_done"
)

// Recommendation pairs a rendered suggestion with the finding that
// justifies it.
type Recommendation struct {
	FindingID string `json:"findingId"`
	Text      string `json:"text"`
}

// Report is the full output of a Generate call for one device.
type Report struct {
	GeneratedAt     time.Time          `json:"generatedAt"`
	DeviceID        platform.DeviceID  `json:"deviceId"`
	State           State              `json:"state"`
	Findings        []patterns.Pattern `json:"findings"`
	Recommendations []Recommendation   `json:"recommendations"`
	Limitations     []string           `json:"limitations"`
}

// Workflow generates diagnostic reports by coordinating the registry,
// event-history engine, pattern detectors, and command tracker.
type Workflow struct {
	registry *registry.Registry
	events   *coreevents.Engine
	tracker  *tracker.Tracker
	catalog  *Catalog
	logger   *zap.Logger
}

// New builds a Workflow bound to its collaborators.
func New(reg *registry.Registry, eventsEngine *coreevents.Engine, cmdTracker *tracker.Tracker, catalog *Catalog, logger *zap.Logger) *Workflow {
	return &Workflow{registry: reg, events: eventsEngine, tracker: cmdTracker, catalog: catalog, logger: logger}
}

// Generate resolves query against the registry, fetches its event history
// over the last windowHours (default 24 if <= 0), runs the detector chain,
// and assembles a Report with recommendations and limitations. Resolve
// failures are returned as errors; adapter failures during fetch degrade
// the report instead of failing the call outright.
func (w *Workflow) Generate(ctx context.Context, query string, windowHours int) (*Report, error) {
	device, err := w.resolve(query)
	if err != nil {
		return nil, err
	}

	if windowHours <= 0 {
		windowHours = 24
	}
	startToken := fmt.Sprintf("%dh", windowHours)

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		DeviceID:    device.ID,
		State:       StateFetching,
	}

	eventResult, fetchErr := w.events.Query(ctx, coreevents.Request{
		DeviceID:      device.ID,
		Start:         startToken,
		HumanReadable: false,
	})
	if fetchErr != nil {
		if ce, ok := fetchErr.(*corerr.Error); ok && isAdapterFailure(ce.Kind) {
			report.State = StateDegradedDone
			report.Limitations = append(report.Limitations, fmt.Sprintf("event history unavailable: %s", ce.Summary))
			report.Findings = nil
			return w.finish(report, device), nil
		}
		return nil, fetchErr
	}

	report.State = StateDetecting
	windowStart := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	commands := w.tracker.CommandsForDevice(device.ID, windowStart)

	report.Findings = patterns.Aggregate(patterns.Input{
		DeviceID: device.ID,
		Events:   eventResult.Events,
		Gaps:     eventResult.Gaps,
		Commands: commands,
		Now:      time.Now().UTC(),
	})

	report.State = StateAssembling
	if eventResult.Metadata.ReachedRetentionLimit {
		report.Limitations = append(report.Limitations, "event history clamped to the 7-day retention window")
	}
	if device.Manufacturer == "" {
		report.Limitations = append(report.Limitations, "manufacturer metadata not reported by the platform for this device")
	}
	report.Limitations = append(report.Limitations, "automation internals on the underlying platform are not inspectable; only externally observable events and commands are analyzed")

	return w.finish(report, device), nil
}

func (w *Workflow) resolve(query string) (*platform.Device, error) {
	res, err := w.registry.Resolve(query)
	if err != nil {
		return nil, err
	}
	return res.Device, nil
}

func (w *Workflow) finish(report *Report, device *platform.Device) *Report {
	if report.State != StateDegradedDone {
		report.State = StateDone
	}

	for _, finding := range report.Findings {
		vars := recommendationVars(finding, device)
		text, ok := w.catalog.Bind(finding.Type, vars)
		if !ok {
			if w.logger != nil {
				w.logger.Debug("dropping recommendation with unbound evidence variable",
					zap.String("pattern_type", string(finding.Type)),
					zap.String("finding_id", finding.ID))
			}
			continue
		}
		report.Recommendations = append(report.Recommendations, Recommendation{FindingID: finding.ID, Text: text})
	}
	return report
}

func recommendationVars(p patterns.Pattern, device *platform.Device) map[string]string {
	vars := map[string]string{
		"DeviceName":   device.Name,
		"Manufacturer": device.Manufacturer,
	}
	if len(p.Evidence) > 0 {
		last := p.Evidence[len(p.Evidence)-1]
		vars["Attribute"] = last.Attribute
		vars["LatestLevel"] = fmt.Sprintf("%v", last.Value)
	}
	vars["TransitionCount"] = fmt.Sprintf("%d", len(p.Evidence))
	vars["GapDuration"] = p.EndedAt.Sub(p.StartedAt).Round(time.Minute).String()
	return vars
}

func isAdapterFailure(kind corerr.Kind) bool {
	switch kind {
	case corerr.AdapterTimeout, corerr.AdapterUnavailable, corerr.AdapterOther:
		return true
	default:
		return false
	}
}
