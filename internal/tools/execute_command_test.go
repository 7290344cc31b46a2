package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func TestExecuteCommandTool_Succeeds(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	adapter := &fakeAdapter{cmdResult: &platform.CommandResult{
		DeviceID: "d1", Capability: platform.CapabilitySwitch, Command: "on", Status: platform.OutcomeSuccess,
	}}
	deps := newDeps(t, reg, adapter)
	tool := NewExecuteCommandTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{
		"device": "Kitchen Light", "capability": "switch", "command": "on",
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Executed switch/on")

	attempts := deps.Tracker.FailedCommands(10, nil)
	assert.Empty(t, attempts)
}

func TestExecuteCommandTool_IllegalCommandRejected(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewExecuteCommandTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{
		"device": "Kitchen Light", "capability": "switch", "command": "explode",
	})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "invalid")
}

func TestExecuteCommandTool_DryRun(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewExecuteCommandTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{
		"device": "Kitchen Light", "capability": "switch", "command": "on", "dry_run": true,
	})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "ready to execute")
}

func TestExecuteCommandTool_AdapterFailureClassified(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	adapter := &fakeAdapter{cmdErr: &unauthorizedError{}}
	deps := newDeps(t, reg, adapter)
	tool := NewExecuteCommandTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{
		"device": "Kitchen Light", "capability": "switch", "command": "on",
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	attempts := deps.Tracker.FailedCommands(10, nil)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Success)
}

type unauthorizedError struct{}

func (e *unauthorizedError) Error() string { return "unauthorized" }
