package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// FailedCommandsTool surfaces the most recent failed command attempts from
// the tracker, optionally restricted to one device.
type FailedCommandsTool struct {
	*BaseTool
}

// NewFailedCommandsTool creates a new tool instance.
func NewFailedCommandsTool(deps *Deps) *FailedCommandsTool {
	return &FailedCommandsTool{BaseTool: NewBaseTool(deps)}
}

func (t *FailedCommandsTool) Name() string { return "failed_commands" }

func (t *FailedCommandsTool) Description() string {
	return "List the most recent failed command attempts, optionally restricted to a single device."
}

func (t *FailedCommandsTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"device": map[string]interface{}{"type": "string", "description": "Device id, name, or alias to restrict results to; omit for all devices"},
			"limit":  map[string]interface{}{"type": "integer", "description": "Maximum attempts to return (default 20)"},
		},
	}
}

func (t *FailedCommandsTool) DefaultTimeout() time.Duration { return 0 }

func (t *FailedCommandsTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	deviceQuery, err := GetStringParam(arguments, "device", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	limit, err := GetIntParam(arguments, "limit", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	if limit <= 0 {
		limit = 20
	}

	var deviceID *platform.DeviceID
	if deviceQuery != "" {
		res, resolveErr := t.deps.Registry.Resolve(deviceQuery)
		if resolveErr != nil {
			return HandleCoreError(resolveErr, "list_devices"), nil
		}
		deviceID = &res.Device.ID
	}

	attempts := t.deps.Tracker.FailedCommands(limit, deviceID)
	summary := fmt.Sprintf("Found %d recent failed command attempts.", len(attempts))
	return NewEnvelopeResult(summary, map[string]interface{}{"attempts": attempts})
}
