package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TestConnectionTool probes adapter connectivity by listing locations and
// reporting the round-trip latency.
type TestConnectionTool struct {
	*BaseTool
}

// NewTestConnectionTool creates a new tool instance.
func NewTestConnectionTool(deps *Deps) *TestConnectionTool {
	return &TestConnectionTool{BaseTool: NewBaseTool(deps)}
}

func (t *TestConnectionTool) Name() string { return "test_connection" }

func (t *TestConnectionTool) Description() string {
	return "Probe connectivity to the automation bridge and report round-trip latency."
}

func (t *TestConnectionTool) InputSchema() interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *TestConnectionTool) DefaultTimeout() time.Duration { return 5 * time.Second }

func (t *TestConnectionTool) Execute(ctx context.Context, _ map[string]interface{}) (*mcp.CallToolResult, error) {
	adapter, err := t.Adapter(ctx)
	if err != nil {
		return NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	locations, err := adapter.ListLocations(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return HandleCoreError(err, ""), nil
	}

	summary := fmt.Sprintf("Connected. %d locations reported in %s.", len(locations), elapsed.Round(time.Millisecond))
	return NewEnvelopeResult(summary, map[string]interface{}{
		"locations":  locations,
		"latencyMs":  elapsed.Milliseconds(),
		"reachable":  true,
	})
}
