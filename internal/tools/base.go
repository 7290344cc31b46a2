package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/diagnostics"
	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/registry"
	"github.com/elidunn/devicecore-mcp/internal/status"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

// Deps bundles the core collaborators every tool needs. One Deps is built
// at server startup and shared by every tool instance.
type Deps struct {
	Registry    *registry.Registry
	Events      *coreevents.Engine
	Tracker     *tracker.Tracker
	Diagnostics *diagnostics.Workflow
	Status      *status.Aggregator
	Adapter     platform.Adapter
	Logger      *zap.Logger
}

// BaseTool provides common functionality for all tools.
type BaseTool struct {
	deps *Deps
}

// NewBaseTool creates a new BaseTool bound to deps.
func NewBaseTool(deps *Deps) *BaseTool {
	return &BaseTool{deps: deps}
}

// Annotations returns default annotations for tools. Tools override this to
// provide tool-specific hints.
func (t *BaseTool) Annotations() *mcp.ToolAnnotations { return nil }

// Adapter returns the platform adapter, preferring a context-injected one
// (used by tests) over the tool's stored dependency.
func (t *BaseTool) Adapter(ctx context.Context) (platform.Adapter, error) {
	if a, err := AdapterFromContext(ctx); err == nil {
		return a, nil
	}
	if t.deps != nil && t.deps.Adapter != nil {
		return t.deps.Adapter, nil
	}
	return nil, ErrNoAdapterInContext
}

func (t *BaseTool) logger() *zap.Logger {
	if t.deps != nil && t.deps.Logger != nil {
		return t.deps.Logger
	}
	return zap.NewNop()
}
