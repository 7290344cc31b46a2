package tools

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Annotation helper functions to create common annotation patterns. These
// help ensure consistent annotation across all tools.

// ToolIcon is a short emoji used as a tool's icon.
type ToolIcon string

const (
	IconDevice      ToolIcon = "🔌"
	IconCommand     ToolIcon = "⚡"
	IconEvents      ToolIcon = "📜"
	IconDiagnostics ToolIcon = "🩺"
	IconStatus      ToolIcon = "📡"
	IconScene       ToolIcon = "🎬"
	IconMeta        ToolIcon = "ℹ️"
)

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// ReadOnlyAnnotations returns annotations for read-only tools (list, get
// operations). These tools don't modify any state and are safe to call
// repeatedly.
func ReadOnlyAnnotations(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:          title,
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(true),
	}
}

// MutatingAnnotations returns annotations for tools that send a command to
// the automation bridge.
func MutatingAnnotations(title string, destructive bool) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    false,
		DestructiveHint: boolPtr(destructive),
		IdempotentHint:  false,
		OpenWorldHint:   boolPtr(true),
	}
}

// toolIconMap maps exact tool names to their icons.
var toolIconMap = map[string]ToolIcon{
	"list_devices":        IconDevice,
	"device_status":       IconDevice,
	"device_events":       IconEvents,
	"validate_capability": IconCommand,
	"execute_command":     IconCommand,
	"execute_scene":       IconScene,
	"failed_commands":     IconCommand,
	"diagnostic_report":   IconDiagnostics,
	"system_status":       IconStatus,
	"test_connection":     IconStatus,
}

// GetToolIcon returns the appropriate icon for a tool based on its name.
func GetToolIcon(toolName string) ToolIcon {
	if icon, ok := toolIconMap[toolName]; ok {
		return icon
	}
	return IconMeta
}
