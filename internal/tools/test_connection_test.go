package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func TestTestConnectionTool_Reachable(t *testing.T) {
	reg := buildRegistry(t)
	adapter := &fakeAdapter{locations: []platform.Location{{ID: "loc1", Name: "Home"}}}
	deps := newDeps(t, reg, adapter)
	tool := NewTestConnectionTool(deps)

	res, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Connected. 1 locations reported")
}

func TestTestConnectionTool_Unreachable(t *testing.T) {
	reg := buildRegistry(t)
	adapter := &fakeAdapter{locErr: &unauthorizedError{}}
	deps := newDeps(t, reg, adapter)
	tool := NewTestConnectionTool(deps)

	res, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
