// Package tools provides the MCP tool implementations exposing the device
// registry, event history, command tracker, diagnostic workflow, and
// system status aggregator to an external LLM client.
package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool defines the interface every MCP tool must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// InputSchema returns the JSON Schema for the tool's input parameters.
	InputSchema() interface{}

	// Execute runs the tool with the given arguments and returns the result.
	Execute(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error)

	// Annotations returns optional hints about tool behavior for LLMs.
	// Returns nil if no annotations are needed.
	Annotations() *mcp.ToolAnnotations

	// DefaultTimeout returns the recommended timeout for this tool, or 0 to
	// use the server default.
	DefaultTimeout() time.Duration
}

// EnhancedTool extends Tool with semantic discovery metadata.
type EnhancedTool interface {
	Tool
	Metadata() *ToolMetadata
}

// ToolMetadata provides semantic information for intelligent tool discovery.
type ToolMetadata struct {
	Categories    []ToolCategory `json:"categories"`
	Keywords      []string       `json:"keywords"`
	Complexity    string         `json:"complexity"`
	UseCases      []string       `json:"use_cases"`
	RelatedTools  []string       `json:"related_tools"`
	ChainPosition string         `json:"chain_position"`
}

// ToolCategory represents the functional category of a tool.
type ToolCategory string

const (
	CategoryDevice      ToolCategory = "device"
	CategoryCommand     ToolCategory = "command"
	CategoryEvents      ToolCategory = "events"
	CategoryDiagnostics ToolCategory = "diagnostics"
	CategoryStatus      ToolCategory = "status"
	CategoryScene       ToolCategory = "scene"
	CategoryMeta        ToolCategory = "meta"
)

// Complexity levels.
const (
	ComplexitySimple       = "simple"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

// ChainPosition values.
const (
	ChainStarter  = "starter"
	ChainMiddle   = "middle"
	ChainFinisher = "finisher"
)
