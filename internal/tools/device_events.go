package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
)

// DeviceEventsTool queries a device's recent event history, within the
// retention window, with optional gap detection and human-readable text.
type DeviceEventsTool struct {
	*BaseTool
}

// NewDeviceEventsTool creates a new tool instance.
func NewDeviceEventsTool(deps *Deps) *DeviceEventsTool {
	return &DeviceEventsTool{BaseTool: NewBaseTool(deps)}
}

func (t *DeviceEventsTool) Name() string { return "device_events" }

func (t *DeviceEventsTool) Description() string {
	return "Query a device's recent event history. Supports relative time tokens (e.g. \"24h\", \"7d\"), capability/attribute filters, and gap detection. History is retained for 7 days."
}

func (t *DeviceEventsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"device":           map[string]interface{}{"type": "string", "description": "Device id, name, or alias"},
			"start":            map[string]interface{}{"type": "string", "description": "Relative token (\"30m\", \"24h\", \"7d\"), RFC3339 instant, or epoch millis. Default: 24h ago"},
			"end":              map[string]interface{}{"type": "string", "description": "Same formats as start. Default: now"},
			"limit":            map[string]interface{}{"type": "integer", "description": "Maximum events to return"},
			"oldest_first":     map[string]interface{}{"type": "boolean", "description": "Return oldest events first instead of newest first"},
			"capabilities":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Restrict to these capabilities"},
			"attributes":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Restrict to these attribute names"},
			"human_readable":   map[string]interface{}{"type": "boolean", "description": "Include a prose summary alongside raw events"},
		},
		"required": []string{"device"},
	}
}

func (t *DeviceEventsTool) DefaultTimeout() time.Duration { return 0 }

func (t *DeviceEventsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := GetStringParam(arguments, "device", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	start, err := GetStringParam(arguments, "start", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	end, err := GetStringParam(arguments, "end", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	limit, err := GetIntParam(arguments, "limit", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	oldestFirst, err := GetBoolParam(arguments, "oldest_first", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	capabilities, err := GetCapabilityArrayParam(arguments, "capabilities")
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	attributes, err := GetStringArrayParam(arguments, "attributes", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	humanReadable, err := GetBoolParam(arguments, "human_readable", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	res, err := t.deps.Registry.Resolve(query)
	if err != nil {
		return HandleCoreError(err, "list_devices"), nil
	}

	result, err := t.deps.Events.Query(ctx, coreevents.Request{
		DeviceID:      res.Device.ID,
		Start:         start,
		End:           end,
		Limit:         limit,
		OldestFirst:   oldestFirst,
		Capabilities:  capabilities,
		Attributes:    attributes,
		HumanReadable: humanReadable,
	})
	if err != nil {
		return HandleCoreError(err, "list_devices"), nil
	}

	summary := fmt.Sprintf("Returned %d events for %s.", len(result.Events), res.Device.Name)
	if result.Metadata.ReachedRetentionLimit {
		summary += " Start was clamped to the 7-day retention window."
	}
	return NewEnvelopeResult(summary, result)
}
