package tools

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/cache"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/registry"
)

// cacheScope is the fixed user/instance pair passed to the shared cache
// manager. The server has no multi-tenant session concept, so every tool
// shares one cache scope.
const cacheScope = "default"

// ListDevicesTool lists devices known to the registry, optionally narrowed
// by room, platform, capability, online state, and name pattern.
type ListDevicesTool struct {
	*BaseTool
}

// NewListDevicesTool creates a new tool instance.
func NewListDevicesTool(deps *Deps) *ListDevicesTool {
	return &ListDevicesTool{BaseTool: NewBaseTool(deps)}
}

func (t *ListDevicesTool) Name() string { return "list_devices" }

func (t *ListDevicesTool) Description() string {
	return "List devices in the registry, optionally filtered by room, platform, capability, online state, or name pattern."
}

func (t *ListDevicesTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"room":         map[string]interface{}{"type": "string", "description": "Restrict to devices in this room"},
			"platform":     map[string]interface{}{"type": "string", "description": "Restrict to devices reported by this platform"},
			"capability":   map[string]interface{}{"type": "string", "description": "Restrict to devices with this capability"},
			"online":       map[string]interface{}{"type": "boolean", "description": "Restrict to online (true) or offline (false) devices"},
			"name_pattern": map[string]interface{}{"type": "string", "description": "Regular expression matched against device names"},
		},
	}
}

func (t *ListDevicesTool) DefaultTimeout() time.Duration { return 0 }

func (t *ListDevicesTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	room, err := GetStringParam(arguments, "room", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	platformName, err := GetStringParam(arguments, "platform", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	capability, err := GetStringParam(arguments, "capability", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	online, err := GetOptionalBoolParam(arguments, "online")
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	namePattern, err := GetStringParam(arguments, "name_pattern", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	filter := registry.Filter{
		Room:       room,
		Platform:   platformName,
		Capability: platform.Capability(capability),
		Online:     online,
	}
	if namePattern != "" {
		re, compileErr := regexp.Compile(namePattern)
		if compileErr != nil {
			return NewToolResultError("invalid name_pattern: " + compileErr.Error()), nil
		}
		filter.NamePattern = re
	}

	cacheKey := fmt.Sprintf("room=%s&platform=%s&capability=%s&online=%v&name_pattern=%s", room, platformName, capability, online, namePattern)
	mgr := cache.GetManager()
	if cached, ok := mgr.Get(cacheScope, cacheScope, t.Name(), cacheKey); ok {
		payload := cached.(map[string]interface{})
		return NewEnvelopeResult(summarizeDeviceCount(payload["count"].(int)), payload)
	}

	devices := t.deps.Registry.Find(filter)
	summary := summarizeDeviceCount(len(devices))
	payload := map[string]interface{}{"devices": devices, "count": len(devices)}
	mgr.Set(cacheScope, cacheScope, t.Name(), cacheKey, payload)
	return NewEnvelopeResult(summary, payload)
}

func summarizeDeviceCount(n int) string {
	if n == 0 {
		return "No devices matched the given filters."
	}
	if n == 1 {
		return "Found 1 matching device."
	}
	return fmt.Sprintf("Found %d matching devices.", n)
}
