package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DiagnosticReportTool resolves a device, runs the behavioral detectors
// over its recent history, and returns evidence-backed findings with
// bound recommendations.
type DiagnosticReportTool struct {
	*BaseTool
}

// NewDiagnosticReportTool creates a new tool instance.
func NewDiagnosticReportTool(deps *Deps) *DiagnosticReportTool {
	return &DiagnosticReportTool{BaseTool: NewBaseTool(deps)}
}

func (t *DiagnosticReportTool) Name() string { return "diagnostic_report" }

func (t *DiagnosticReportTool) Description() string {
	return "Generate a diagnostic report for a device: behavioral findings (rapid change, connectivity gaps, battery decline, automation conflicts, anomalies) with recommendations."
}

func (t *DiagnosticReportTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"device":       map[string]interface{}{"type": "string", "description": "Device id, name, or alias"},
			"window_hours": map[string]interface{}{"type": "integer", "description": "Lookback window in hours (default 24)"},
		},
		"required": []string{"device"},
	}
}

func (t *DiagnosticReportTool) DefaultTimeout() time.Duration { return 10 * time.Second }

func (t *DiagnosticReportTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := GetStringParam(arguments, "device", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	windowHours, err := GetIntParam(arguments, "window_hours", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	report, err := t.deps.Diagnostics.Generate(ctx, query, windowHours)
	if err != nil {
		return HandleCoreError(err, "list_devices"), nil
	}

	summary := fmt.Sprintf("%d finding(s), %d recommendation(s) for device %s (state: %s).",
		len(report.Findings), len(report.Recommendations), report.DeviceID, report.State)
	return NewEnvelopeResult(summary, report)
}
