package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/cache"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// DeviceStatusTool resolves a device by id, name, or alias and reports its
// current state across all capabilities.
type DeviceStatusTool struct {
	*BaseTool
}

// NewDeviceStatusTool creates a new tool instance.
func NewDeviceStatusTool(deps *Deps) *DeviceStatusTool {
	return &DeviceStatusTool{BaseTool: NewBaseTool(deps)}
}

func (t *DeviceStatusTool) Name() string { return "device_status" }

func (t *DeviceStatusTool) Description() string {
	return "Resolve a device by id, exact name, alias, or fuzzy name match, and report its current attribute state."
}

func (t *DeviceStatusTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"device": map[string]interface{}{"type": "string", "description": "Device id, name, or alias"},
		},
		"required": []string{"device"},
	}
}

func (t *DeviceStatusTool) DefaultTimeout() time.Duration { return 0 }

func (t *DeviceStatusTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := GetStringParam(arguments, "device", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	res, err := t.deps.Registry.Resolve(query)
	if err != nil {
		return HandleCoreError(err, "list_devices"), nil
	}

	mgr := cache.GetManager()
	cacheKey := string(res.Device.ID)
	var state map[platform.Capability]map[string]interface{}
	if cached, ok := mgr.Get(cacheScope, cacheScope, t.Name(), cacheKey); ok {
		state = cached.(map[platform.Capability]map[string]interface{})
	} else {
		adapter, err := t.Adapter(ctx)
		if err != nil {
			return NewToolResultError(err.Error()), nil
		}

		fetched, err := adapter.GetDeviceState(ctx, res.Device.ID)
		if err != nil {
			return HandleCoreError(err, "list_devices"), nil
		}
		state = fetched
		mgr.Set(cacheScope, cacheScope, t.Name(), cacheKey, state)
	}

	summary := fmt.Sprintf("%s is currently %s.", res.Device.Name, onlineWord(res.Device.Online))
	return NewEnvelopeResult(summary, map[string]interface{}{
		"device":    res.Device,
		"matchType": res.MatchType,
		"state":     state,
	})
}

func onlineWord(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
