package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// ValidateCapabilityTool resolves a device and reports whether it exposes
// a given capability, and which commands are legal for it, without
// issuing any command.
type ValidateCapabilityTool struct {
	*BaseTool
}

// NewValidateCapabilityTool creates a new tool instance.
func NewValidateCapabilityTool(deps *Deps) *ValidateCapabilityTool {
	return &ValidateCapabilityTool{BaseTool: NewBaseTool(deps)}
}

func (t *ValidateCapabilityTool) Name() string { return "validate_capability" }

func (t *ValidateCapabilityTool) Description() string {
	return "Check whether a device exposes a capability, and list the commands legal for it, before attempting execute_command."
}

func (t *ValidateCapabilityTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"device":     map[string]interface{}{"type": "string", "description": "Device id, name, or alias"},
			"capability": map[string]interface{}{"type": "string", "description": "Capability to check"},
		},
		"required": []string{"device", "capability"},
	}
}

func (t *ValidateCapabilityTool) DefaultTimeout() time.Duration { return 0 }

func (t *ValidateCapabilityTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	query, err := GetStringParam(arguments, "device", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	capability, err := GetStringParam(arguments, "capability", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	res, err := t.deps.Registry.Resolve(query)
	if err != nil {
		return HandleCoreError(err, "list_devices"), nil
	}

	capVal := platform.Capability(capability)
	has := res.Device.HasCapability(capVal)
	legal := platform.LegalCommands[capVal]

	result := &ValidationResult{Valid: has}
	if !has {
		result.Errors = []string{fmt.Sprintf("%s does not expose capability %q", res.Device.Name, capVal)}
	} else {
		result.Summary = map[string]interface{}{"legalCommands": legal}
	}

	return FormatDryRunResult(result, "validate_capability", map[string]interface{}{
		"device":     res.Device.Name,
		"capability": capability,
	}), nil
}
