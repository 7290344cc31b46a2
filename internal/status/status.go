// Package status implements the system-wide status aggregator: a
// deterministic device sample fanned out across five independent,
// all-settled analysis branches.
package status

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/patterns"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/registry"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

const maxSample = 15
const perBranchConcurrency = 5

// Format selects the shape of Run's rendered output.
type Format string

const (
	FormatMarkdown   Format = "markdown"
	FormatStructured Format = "structured"
)

// Request parameterizes one Run call.
type Request struct {
	Scope           string // "" or "all" means every device; otherwise a room name
	Capability      platform.Capability
	MinSeverity     patterns.Severity
	IncludePatterns bool
	Format          Format
}

// Finding is a single severity-ranked item surfaced by a branch.
type Finding struct {
	DeviceID    platform.DeviceID `json:"deviceId"`
	DeviceName  string            `json:"deviceName"`
	Type        patterns.Type     `json:"type"`
	Severity    patterns.Severity `json:"severity"`
	Score       float64           `json:"score"`
	Description string            `json:"description"`
}

// Branch is the outcome of one of the five analysis branches. A branch
// that failed entirely (not just found nothing) sets Available=false and
// Reason to a short explanation; it never aborts the other branches.
type Branch struct {
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
	Findings  []Finding `json:"findings"`
}

// Report is the full structured result of one Run call.
type Report struct {
	GeneratedAt        time.Time     `json:"generatedAt"`
	SampledDeviceCount int           `json:"sampledDeviceCount"`
	MatchingDeviceCount int          `json:"matchingDeviceCount"`
	Connectivity       Branch        `json:"connectivity"`
	Battery            Branch        `json:"battery"`
	Automation         Branch        `json:"automation"`
	Anomalies          Branch        `json:"anomalies"`
	IndexHealth        Branch        `json:"indexHealth"`
	Duration           time.Duration `json:"durationMs"`
}

// Aggregator coordinates the registry, event-history engine, and command
// tracker to produce system-status reports.
type Aggregator struct {
	registry *registry.Registry
	events   *coreevents.Engine
	tracker  *tracker.Tracker
	logger   *zap.Logger
}

// New builds an Aggregator bound to its collaborators.
func New(reg *registry.Registry, eventsEngine *coreevents.Engine, cmdTracker *tracker.Tracker, logger *zap.Logger) *Aggregator {
	return &Aggregator{registry: reg, events: eventsEngine, tracker: cmdTracker, logger: logger}
}

// Run samples up to 15 matching devices deterministically, fans out the
// five analysis branches concurrently, applies the severity floor, and
// returns the assembled report. A failure in one branch never prevents
// the others from completing.
func (a *Aggregator) Run(ctx context.Context, req Request) (*Report, error) {
	started := time.Now()

	filter := registry.Filter{Capability: req.Capability}
	if req.Scope != "" && req.Scope != "all" {
		filter.Room = req.Scope
	}
	matching := a.registry.Find(filter)

	sample := matching
	if len(sample) > maxSample {
		sample = sample[:maxSample]
	}

	report := &Report{
		GeneratedAt:         started,
		SampledDeviceCount:  len(sample),
		MatchingDeviceCount: len(matching),
	}

	var wg sync.WaitGroup
	branches := []struct {
		target *Branch
		run    func(context.Context, []*platform.Device) Branch
	}{
		{&report.Connectivity, a.connectivityBranch},
		{&report.Battery, a.batteryBranch},
		{&report.Automation, a.automationBranch},
		{&report.Anomalies, a.anomaliesBranch},
		{&report.IndexHealth, func(_ context.Context, _ []*platform.Device) Branch { return a.indexHealthBranch() }},
	}

	for _, b := range branches {
		wg.Add(1)
		go func(target *Branch, run func(context.Context, []*platform.Device) Branch) {
			defer wg.Done()
			*target = safelyRun(ctx, sample, run)
		}(b.target, b.run)
	}
	wg.Wait()

	applySeverityFloor(report, req.MinSeverity)
	report.Duration = time.Since(started)
	return report, nil
}

// safelyRun recovers a panicking branch into an unavailable result so one
// broken analysis can never take down the others.
func safelyRun(ctx context.Context, sample []*platform.Device, run func(context.Context, []*platform.Device) Branch) (result Branch) {
	defer func() {
		if r := recover(); r != nil {
			result = Branch{Available: false, Reason: fmt.Sprintf("unavailable: panic during analysis (%v)", r)}
		}
	}()
	return run(ctx, sample)
}

func (a *Aggregator) connectivityBranch(ctx context.Context, sample []*platform.Device) Branch {
	return a.patternBranch(ctx, "connectivity", sample, patterns.TypeConnectivityGap)
}

func (a *Aggregator) automationBranch(ctx context.Context, sample []*platform.Device) Branch {
	return a.patternBranch(ctx, "automation", sample, patterns.TypeAutomationConflict, patterns.TypeAutomationTrigger)
}

func (a *Aggregator) batteryBranch(ctx context.Context, sample []*platform.Device) Branch {
	return a.patternBranch(ctx, "battery", sample, patterns.TypeBatteryDecline)
}

func (a *Aggregator) anomaliesBranch(ctx context.Context, sample []*platform.Device) Branch {
	return a.patternBranch(ctx, "anomalies", sample)
}

// patternBranch fetches each sampled device's recent events and runs the
// detector chain concurrently (bounded by perBranchConcurrency), keeping
// only findings whose type is in wantTypes (or every non-normal finding
// when wantTypes is empty). Per-device fetch failures degrade that
// device's contribution instead of failing the branch.
func (a *Aggregator) patternBranch(ctx context.Context, name string, sample []*platform.Device, wantTypes ...patterns.Type) Branch {
	var mu sync.Mutex
	var findings []Finding
	var failedDevices int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(perBranchConcurrency)

	for _, device := range sample {
		device := device
		g.Go(func() error {
			result, err := a.events.Query(gctx, coreevents.Request{DeviceID: device.ID, Start: "24h"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failedDevices++
				return nil
			}

			detected := patterns.Aggregate(patterns.Input{
				DeviceID: device.ID,
				Events:   result.Events,
				Gaps:     result.Gaps,
				Commands: a.tracker.CommandsForDevice(device.ID, time.Now().UTC().Add(-24*time.Hour)),
				Now:      time.Now().UTC(),
			})
			for _, p := range detected {
				if p.Type == patterns.TypeNormal {
					continue
				}
				if len(wantTypes) > 0 && !containsType(wantTypes, p.Type) {
					continue
				}
				findings = append(findings, Finding{
					DeviceID:    device.ID,
					DeviceName:  device.Name,
					Type:        p.Type,
					Severity:    p.Severity,
					Score:       p.Score,
					Description: p.Description,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	branch := Branch{Name: name, Available: true, Findings: findings}
	if failedDevices == len(sample) && len(sample) > 0 {
		branch.Available = false
		branch.Reason = "unavailable: adapter failed for every sampled device"
	} else if failedDevices > 0 {
		branch.Reason = fmt.Sprintf("%d of %d sampled devices could not be analyzed", failedDevices, len(sample))
	}
	return branch
}

func (a *Aggregator) indexHealthBranch() Branch {
	stats := a.registry.Stats()
	sumByCapability := 0
	for _, count := range stats.ByCapability {
		sumByCapability += count
	}

	healthy := stats.Online+stats.Offline == stats.TotalDevices
	branch := Branch{Name: "index_health", Available: true}
	if !healthy {
		branch.Findings = append(branch.Findings, Finding{
			Type:        patterns.TypeAnomaly,
			Severity:    patterns.SeverityMedium,
			Description: "online/offline device counts do not sum to the registry total",
		})
	}
	return branch
}

func containsType(types []patterns.Type, t patterns.Type) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

func applySeverityFloor(report *Report, floor patterns.Severity) {
	if floor == "" {
		sortBranch(&report.Connectivity)
		sortBranch(&report.Battery)
		sortBranch(&report.Automation)
		sortBranch(&report.Anomalies)
		sortBranch(&report.IndexHealth)
		return
	}

	min := severityRank(floor)
	filterBranch := func(b *Branch) {
		kept := b.Findings[:0]
		for _, f := range b.Findings {
			if severityRank(f.Severity) >= min {
				kept = append(kept, f)
			}
		}
		b.Findings = kept
		sortFindings(b.Findings)
	}
	filterBranch(&report.Connectivity)
	filterBranch(&report.Battery)
	filterBranch(&report.Automation)
	filterBranch(&report.Anomalies)
	filterBranch(&report.IndexHealth)
}

func sortBranch(b *Branch) { sortFindings(b.Findings) }

func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if severityRank(findings[i].Severity) != severityRank(findings[j].Severity) {
			return severityRank(findings[i].Severity) > severityRank(findings[j].Severity)
		}
		return findings[i].Score > findings[j].Score
	})
}

func severityRank(s patterns.Severity) int {
	switch s {
	case patterns.SeverityCritical:
		return 3
	case patterns.SeverityHigh:
		return 2
	case patterns.SeverityMedium:
		return 1
	case patterns.SeverityLow:
		return 0
	default:
		return -1
	}
}

// RenderMarkdown renders report under the fixed section headers: Device
// Summary, Connectivity, Battery, Automation, Anomalies, Index Health,
// Performance.
func RenderMarkdown(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# System Status Report\n\ngenerated %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Device Summary\n\n")
	fmt.Fprintf(&b, "%d of %d matching devices sampled\n\n", report.SampledDeviceCount, report.MatchingDeviceCount)

	renderBranch(&b, "Connectivity", report.Connectivity)
	renderBranch(&b, "Battery", report.Battery)
	renderBranch(&b, "Automation", report.Automation)
	renderBranch(&b, "Anomalies", report.Anomalies)
	renderBranch(&b, "Index Health", report.IndexHealth)

	b.WriteString("## Performance\n\n")
	fmt.Fprintf(&b, "completed in %s\n", report.Duration)
	return b.String()
}

func renderBranch(b *strings.Builder, heading string, branch Branch) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if !branch.Available {
		fmt.Fprintf(b, "%s\n\n", branch.Reason)
		return
	}
	if branch.Reason != "" {
		fmt.Fprintf(b, "_%s_\n\n", branch.Reason)
	}
	if len(branch.Findings) == 0 {
		b.WriteString("No findings.\n\n")
		return
	}
	for _, f := range branch.Findings {
		fmt.Fprintf(b, "- **%s** (%s, severity %s): %s\n", f.DeviceName, f.Type, f.Severity, f.Description)
	}
	b.WriteString("\n")
}
