package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func TestSystemStatusTool_StructuredFormat(t *testing.T) {
	reg := buildRegistry(t,
		testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch),
		testDevice("d2", "Garage Light", "Garage", platform.CapabilitySwitch),
	)
	deps := newStatusDeps(t, reg, &fakeAdapter{})
	tool := NewSystemStatusTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"format": "structured"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Sampled 2 of 2 matching devices")
}

func TestSystemStatusTool_MarkdownFormat(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	deps := newStatusDeps(t, reg, &fakeAdapter{})
	tool := NewSystemStatusTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	require.NotEmpty(t, resultText(t, res))
}

func TestSystemStatusTool_ScopedByRoom(t *testing.T) {
	reg := buildRegistry(t,
		testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch),
		testDevice("d2", "Garage Light", "Garage", platform.CapabilitySwitch),
	)
	deps := newStatusDeps(t, reg, &fakeAdapter{})
	tool := NewSystemStatusTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"scope": "Kitchen", "format": "structured"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Sampled 1 of 1 matching devices")
}
