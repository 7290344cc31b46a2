package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/cache"
)

// executeSceneArgs is the decoded, struct-tag-validated shape of
// ExecuteSceneTool's arguments.
type executeSceneArgs struct {
	SceneID string `validate:"required"`
}

// ExecuteSceneTool runs an adapter-defined scene by id.
type ExecuteSceneTool struct {
	*BaseTool
}

// NewExecuteSceneTool creates a new tool instance.
func NewExecuteSceneTool(deps *Deps) *ExecuteSceneTool {
	return &ExecuteSceneTool{BaseTool: NewBaseTool(deps)}
}

func (t *ExecuteSceneTool) Name() string { return "execute_scene" }

func (t *ExecuteSceneTool) Description() string {
	return "Execute a scene defined on the automation bridge by its id."
}

func (t *ExecuteSceneTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"scene_id": map[string]interface{}{"type": "string", "description": "Scene id to execute"},
			"dry_run":  map[string]interface{}{"type": "boolean", "description": "Validate without executing"},
		},
		"required": []string{"scene_id"},
	}
}

func (t *ExecuteSceneTool) DefaultTimeout() time.Duration { return 0 }

func (t *ExecuteSceneTool) Annotations() *mcp.ToolAnnotations {
	return MutatingAnnotations("Execute Scene", true)
}

func (t *ExecuteSceneTool) Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	sceneID, err := GetStringParam(arguments, "scene_id", true)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}
	dryRun, err := GetBoolParam(arguments, "dry_run", false)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	if verr := ValidateStruct(executeSceneArgs{SceneID: sceneID}); verr != nil {
		return NewToolResultError(verr.Error()), nil
	}

	if dryRun {
		result := FormatDryRunResult(&ValidationResult{Valid: true}, "execute_scene", map[string]interface{}{"scene_id": sceneID})
		return result, nil
	}

	adapter, err := t.Adapter(ctx)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	if err := adapter.ExecuteScene(ctx, sceneID); err != nil {
		return HandleCoreError(err, ""), nil
	}
	cache.GetManager().InvalidateRelated(cacheScope, cacheScope, t.Name())

	summary := fmt.Sprintf("Executed scene %s.", sceneID)
	return NewEnvelopeResult(summary, map[string]interface{}{"sceneId": sceneID, "status": "success"})
}
