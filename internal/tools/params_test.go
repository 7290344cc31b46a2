package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStringParam(t *testing.T) {
	v, err := GetStringParam(map[string]interface{}{"device": "Kitchen Light"}, "device", true)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen Light", v)

	_, err = GetStringParam(map[string]interface{}{}, "device", true)
	assert.Error(t, err)

	v, err = GetStringParam(map[string]interface{}{}, "device", false)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestGetIntParam(t *testing.T) {
	v, err := GetIntParam(map[string]interface{}{"limit": float64(20)}, "limit", false)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}

func TestGetOptionalBoolParam(t *testing.T) {
	v, err := GetOptionalBoolParam(map[string]interface{}{}, "online")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = GetOptionalBoolParam(map[string]interface{}{"online": true}, "online")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, *v)
}

func TestGetCapabilityArrayParam(t *testing.T) {
	v, err := GetCapabilityArrayParam(map[string]interface{}{
		"capabilities": []interface{}{"switch", "dimmer"},
	}, "capabilities")
	require.NoError(t, err)
	require.Len(t, v, 2)
	assert.EqualValues(t, "switch", v[0])
}
