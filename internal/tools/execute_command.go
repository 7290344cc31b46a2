package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/cache"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

// executeCommandArgs is the decoded, struct-tag-validated shape of
// ExecuteCommandTool's arguments.
type executeCommandArgs struct {
	Device     string `validate:"required"`
	Capability string `validate:"required"`
	Command    string `validate:"required"`
}

// ExecuteCommandTool resolves a device and issues a single command against
// one of its capabilities, after checking the command is legal for that
// capability.
type ExecuteCommandTool struct {
	*BaseTool
}

// NewExecuteCommandTool creates a new tool instance.
func NewExecuteCommandTool(deps *Deps) *ExecuteCommandTool {
	return &ExecuteCommandTool{BaseTool: NewBaseTool(deps)}
}

func (t *ExecuteCommandTool) Name() string { return "execute_command" }

func (t *ExecuteCommandTool) Description() string {
	return "Execute a command against a device capability (e.g. switch/on, dimmer/setLevel). Supports dry_run to validate without sending the command."
}

func (t *ExecuteCommandTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"device":     map[string]interface{}{"type": "string", "description": "Device id, name, or alias"},
			"capability": map[string]interface{}{"type": "string", "description": "Capability to command, e.g. \"switch\", \"dimmer\", \"lock\""},
			"command":    map[string]interface{}{"type": "string", "description": "Command verb legal for the capability, e.g. \"on\", \"setLevel\""},
			"args":       map[string]interface{}{"type": "object", "description": "Command arguments, e.g. {\"level\": 50}"},
			"dry_run":    map[string]interface{}{"type": "boolean", "description": "Validate the command without executing it"},
		},
		"required": []string{"device", "capability", "command"},
	}
}

func (t *ExecuteCommandTool) DefaultTimeout() time.Duration { return 0 }

func (t *ExecuteCommandTool) Annotations() *mcp.ToolAnnotations {
	return MutatingAnnotations("Execute Command", true)
}

func (t *ExecuteCommandTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	deviceQuery, err := GetStringParam(arguments, "device", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	capability, err := GetStringParam(arguments, "capability", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	command, err := GetStringParam(arguments, "command", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	args, err := GetObjectParam(arguments, "args", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	dryRun, err := GetBoolParam(arguments, "dry_run", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	if verr := ValidateStruct(executeCommandArgs{Device: deviceQuery, Capability: capability, Command: command}); verr != nil {
		return NewToolResultError(verr.Error()), nil
	}

	res, err := t.deps.Registry.Resolve(deviceQuery)
	if err != nil {
		return HandleCoreError(err, "list_devices"), nil
	}
	device := res.Device
	capVal := platform.Capability(capability)

	validation := validateCommand(device, capVal, command)
	if dryRun || !validation.Valid {
		result := FormatDryRunResult(validation, "execute_command", map[string]interface{}{
			"device":     device.Name,
			"capability": capability,
			"command":    command,
			"args":       args,
		})
		return result, nil
	}

	adapter, err := t.Adapter(ctx)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	deadline := time.Duration(10000) * time.Millisecond
	cmdResult, cmdErr := adapter.ExecuteCommand(ctx, device.ID, capVal, command, args, deadline)

	attempt := tracker.CommandAttempt{
		DeviceID:   device.ID,
		Capability: capVal,
		Command:    command,
		Args:       args,
		Source:     "mcp_tool",
	}
	if cmdErr != nil {
		attempt.Success = false
		attempt.Failure = tracker.ClassifyFailure(cmdErr)
		attempt.Message = cmdErr.Error()
		t.deps.Tracker.Record(attempt)
		return HandleCoreError(cmdErr, "list_devices"), nil
	}

	attempt.Success = cmdResult.Status == platform.OutcomeSuccess
	if !attempt.Success {
		attempt.Message = cmdResult.Message
	}
	t.deps.Tracker.Record(attempt)
	cache.GetManager().InvalidateRelated(cacheScope, cacheScope, t.Name())

	summary := fmt.Sprintf("Executed %s/%s on %s: %s.", capability, command, device.Name, cmdResult.Status)
	return NewEnvelopeResult(summary, cmdResult)
}

func validateCommand(device *platform.Device, capVal platform.Capability, command string) *ValidationResult {
	if !device.HasCapability(capVal) {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("%s does not expose capability %q", device.Name, capVal)},
		}
	}
	legal, ok := platform.LegalCommands[capVal]
	if !ok || len(legal) == 0 {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("capability %q accepts no commands", capVal)},
		}
	}
	for _, l := range legal {
		if l == command {
			return &ValidationResult{Valid: true, Summary: map[string]interface{}{"legalCommands": legal}}
		}
	}
	return &ValidationResult{
		Valid:  false,
		Errors: []string{fmt.Sprintf("%q is not a legal command for capability %q", command, capVal)},
		Suggestions: []string{
			fmt.Sprintf("Legal commands for %q: %v", capVal, legal),
		},
	}
}
