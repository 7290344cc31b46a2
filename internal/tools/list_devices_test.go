package tools

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListDevicesTool_FiltersByRoom(t *testing.T) {
	reg := buildRegistry(t,
		testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch),
		testDevice("d2", "Garage Light", "Garage", platform.CapabilitySwitch),
	)
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewListDevicesTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"room": "Kitchen"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Found 1 matching device")
}

func TestListDevicesTool_InvalidNamePattern(t *testing.T) {
	reg := buildRegistry(t)
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewListDevicesTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"name_pattern": "["})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListDevicesTool_CachesRepeatedCall(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewListDevicesTool(deps)

	args := map[string]interface{}{"room": "Kitchen"}
	first, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)
	second, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, resultText(t, first), resultText(t, second))
}
