package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/patterns"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/status"
)

// SystemStatusTool aggregates a system-wide status report across a
// deterministic device sample: connectivity, battery, automation-conflict,
// anomaly, and registry index-health branches.
type SystemStatusTool struct {
	*BaseTool
}

// NewSystemStatusTool creates a new tool instance.
func NewSystemStatusTool(deps *Deps) *SystemStatusTool {
	return &SystemStatusTool{BaseTool: NewBaseTool(deps)}
}

func (t *SystemStatusTool) Name() string { return "system_status" }

func (t *SystemStatusTool) Description() string {
	return "Produce a system-wide status report: connectivity, battery, automation conflicts, anomalies, and registry index health, sampled across up to 15 devices."
}

func (t *SystemStatusTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"scope":        map[string]interface{}{"type": "string", "description": "Room name to scope the sample to, or \"all\" (default)"},
			"capability":   map[string]interface{}{"type": "string", "description": "Restrict the sample to devices with this capability"},
			"min_severity": map[string]interface{}{"type": "string", "enum": []string{"low", "medium", "high", "critical"}, "description": "Drop findings below this severity"},
			"format":       map[string]interface{}{"type": "string", "enum": []string{"markdown", "structured"}, "description": "Output shape (default markdown)"},
		},
	}
}

func (t *SystemStatusTool) DefaultTimeout() time.Duration { return 15 * time.Second }

func (t *SystemStatusTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	scope, err := GetStringParam(arguments, "scope", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	capability, err := GetStringParam(arguments, "capability", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	minSeverity, err := GetStringParam(arguments, "min_severity", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	format, err := GetStringParam(arguments, "format", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	outFormat := status.FormatMarkdown
	if format == string(status.FormatStructured) {
		outFormat = status.FormatStructured
	}

	report, err := t.deps.Status.Run(ctx, status.Request{
		Scope:       scope,
		Capability:  platform.Capability(capability),
		MinSeverity: patterns.Severity(minSeverity),
		Format:      outFormat,
	})
	if err != nil {
		return HandleCoreError(err, ""), nil
	}

	if outFormat == status.FormatStructured {
		summary := fmt.Sprintf("Sampled %d of %d matching devices.", report.SampledDeviceCount, report.MatchingDeviceCount)
		return NewEnvelopeResult(summary, report)
	}

	markdown := status.RenderMarkdown(report)
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: markdown}}}, nil
}
