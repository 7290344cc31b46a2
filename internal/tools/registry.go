// Package tools provides the MCP tool implementations exposing the device
// registry, event history, command tracker, diagnostic workflow, and
// system status aggregator to an external LLM client.
package tools

// GetAllTools returns every tool exposed by the server, built from a
// shared Deps. This factory function centralizes tool creation and makes
// it easy to add new tools or modify tool registration.
func GetAllTools(deps *Deps) []Tool {
	return []Tool{
		// Device discovery and state
		NewListDevicesTool(deps),
		NewDeviceStatusTool(deps),

		// Event history
		NewDeviceEventsTool(deps),

		// Command execution
		NewValidateCapabilityTool(deps),
		NewExecuteCommandTool(deps),
		NewExecuteSceneTool(deps),
		NewFailedCommandsTool(deps),

		// Diagnostics and system health
		NewDiagnosticReportTool(deps),
		NewSystemStatusTool(deps),
		NewTestConnectionTool(deps),
	}
}

// GetToolCount returns the total number of registered tools.
func GetToolCount() int {
	return 10
}
