package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSceneTool_Succeeds(t *testing.T) {
	reg := buildRegistry(t)
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewExecuteSceneTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"scene_id": "good_night"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Executed scene good_night")
}

func TestExecuteSceneTool_DryRun(t *testing.T) {
	reg := buildRegistry(t)
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewExecuteSceneTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"scene_id": "good_night", "dry_run": true})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "ready to execute")
}

func TestExecuteSceneTool_AdapterError(t *testing.T) {
	reg := buildRegistry(t)
	adapter := &fakeAdapter{sceneErr: &unauthorizedError{}}
	deps := newDeps(t, reg, adapter)
	tool := NewExecuteSceneTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"scene_id": "bad"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestExecuteSceneTool_MissingSceneID(t *testing.T) {
	reg := buildRegistry(t)
	deps := newDeps(t, reg, &fakeAdapter{})
	tool := NewExecuteSceneTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
