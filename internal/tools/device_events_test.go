package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func TestDeviceEventsTool_ReturnsRecentEvents(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	adapter := &fakeAdapter{events: []platform.DeviceEvent{
		{DeviceID: "d1", Time: time.Now().UTC().Add(-time.Hour), Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "on"},
		{DeviceID: "d1", Time: time.Now().UTC().Add(-2 * time.Hour), Capability: platform.CapabilitySwitch, Attribute: "switch", Value: "off"},
	}}
	deps := newDeps(t, reg, adapter)
	tool := NewDeviceEventsTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"device": "Kitchen Light"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Returned 2 events")
}

func TestDeviceEventsTool_UnresolvedDevice(t *testing.T) {
	reg := buildRegistry(t)
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewDeviceEventsTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"device": "missing"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
