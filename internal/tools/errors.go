package tools

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
)

// NewToolResultError creates a new tool result carrying an error message.
func NewToolResultError(message string) *mcp.CallToolResult {
	if message == "" {
		message = "An unknown error occurred"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// NewToolResultErrorWithSuggestion creates a tool result with an error and
// recovery guidance.
func NewToolResultErrorWithSuggestion(message, suggestion string) *mcp.CallToolResult {
	full := fmt.Sprintf("%s\n\nSuggestion: %s", message, suggestion)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: full}},
		IsError: true,
	}
}

// HandleCoreError translates a *corerr.Error into a tool result with
// recovery guidance appropriate to its kind. Any other error is surfaced
// verbatim.
func HandleCoreError(err error, listToolName string) *mcp.CallToolResult {
	ce, ok := err.(*corerr.Error)
	if !ok {
		return NewToolResultError(err.Error())
	}

	switch ce.Kind {
	case corerr.DeviceNotFound:
		suggestion := "Check the device name or id for typos."
		if listToolName != "" {
			suggestion = fmt.Sprintf("Use '%s' to see known devices and their ids.", listToolName)
		}
		return NewToolResultErrorWithSuggestion(ce.Summary, suggestion)
	case corerr.Ambiguous:
		candidates := candidateNames(ce)
		suggestion := "Resolve with the exact device id instead of a name."
		if len(candidates) > 0 {
			suggestion = fmt.Sprintf("Candidates: %s. Resolve with the exact device id instead.", strings.Join(candidates, ", "))
		}
		return NewToolResultErrorWithSuggestion(ce.Summary, suggestion)
	case corerr.CapabilityUnsupported, corerr.CommandUnsupported:
		return NewToolResultErrorWithSuggestion(ce.Summary, "Use validate_capability to check what this device supports before issuing a command.")
	case corerr.InvalidTimeRange:
		return NewToolResultErrorWithSuggestion(ce.Summary, "Event history only covers the last 7 days; narrow or adjust the requested range.")
	case corerr.RateLimited:
		return NewToolResultErrorWithSuggestion(ce.Summary, "Wait before retrying; failed_commands lists recent rate_limited attempts.")
	case corerr.AdapterTimeout, corerr.AdapterUnavailable:
		return NewToolResultErrorWithSuggestion(ce.Summary, "The automation bridge did not respond in time; retry shortly or check test_connection.")
	default:
		return NewToolResultError(ce.Error())
	}
}

func candidateNames(ce *corerr.Error) []string {
	raw, ok := ce.Detail["candidates"]
	if !ok {
		return nil
	}
	names, ok := raw.([]string)
	if !ok {
		return nil
	}
	return names
}
