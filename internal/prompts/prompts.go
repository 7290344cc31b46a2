// Package prompts provides pre-built prompts for common device
// intelligence core workflows: tracing a misbehaving device, comparing
// rooms, triaging command failures, and building a system status report.
package prompts

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// PromptDefinition represents a prompt with its metadata and handler
type PromptDefinition struct {
	// Prompt is the MCP prompt metadata
	Prompt *mcp.Prompt
	// Handler is the function that generates the prompt content
	Handler mcp.PromptHandler
}

// Registry holds all registered prompts
type Registry struct {
	logger  *zap.Logger
	prompts []*PromptDefinition
}

// NewRegistry creates a new prompt registry with all available prompts
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		logger: logger,
	}
	r.registerPrompts()
	return r
}

// GetPrompts returns all registered prompt definitions
func (r *Registry) GetPrompts() []*PromptDefinition {
	return r.prompts
}

// registerPrompts registers all available prompts
func (r *Registry) registerPrompts() {
	r.prompts = []*PromptDefinition{
		r.investigateDeviceIssuePrompt(),
		r.compareRoomsPrompt(),
		r.troubleshootCommandFailuresPrompt(),
		r.reviewRetentionPrompt(),
		r.testBridgeConnectionPrompt(),
		r.buildStatusReportPrompt(),
		r.capabilityTutorialPrompt(),
		r.quickStartPrompt(),
		r.connectivityAuditPrompt(),
		r.continueInvestigationPrompt(),
	}
}

// Helper to create a prompt result with user role
func createPromptResult(description, content string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: content,
				},
			},
		},
	}
}

// getStringArg safely extracts a string argument with a default value
func getStringArg(args map[string]string, key, defaultVal string) string {
	if val, ok := args[key]; ok && val != "" {
		return val
	}
	return defaultVal
}

// investigateDeviceIssuePrompt creates the "investigate_device_issue" prompt definition
func (r *Registry) investigateDeviceIssuePrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "investigate_device_issue",
			Title:       "Investigate Device Issue",
			Description: "Guide through investigating a misbehaving device end to end",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "device",
					Description: "Device id, name, or alias to investigate",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			device := getStringArg(req.Params.Arguments, "device", "the device in question")

			content := fmt.Sprintf(`Let's investigate %s. I'll help you work through the evidence in order:

1. **Resolve the device** and check its current reported state
2. **Review recent event history** for gaps or unusual activity
3. **Check for failed commands** sent to this device recently
4. **Generate a diagnostic report** that ties findings together with recommendations

To get started, run these tools in sequence:

1. device_status with device "%s"
2. device_events with device "%s" and a window such as start "24h"
3. failed_commands with device "%s"
4. diagnostic_report with device "%s"

I'll help you read the findings and recommendations from the diagnostic report once you have it.`, device, device, device, device, device)

			return createPromptResult("Investigate device issue workflow", content), nil
		},
	}
}

// compareRoomsPrompt creates the "compare_rooms" prompt definition
func (r *Registry) compareRoomsPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "compare_rooms",
			Title:       "Compare Rooms",
			Description: "Compare device activity and health across two rooms",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "room_a",
					Description: "First room name",
					Required:    false,
				},
				{
					Name:        "room_b",
					Description: "Second room name",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			roomA := getStringArg(req.Params.Arguments, "room_a", "the living room")
			roomB := getStringArg(req.Params.Arguments, "room_b", "the bedroom")

			content := fmt.Sprintf(`I'll help you compare device health between %s and %s. Here's the process:

**Step 1: List devices per room**
- Use: list_devices with room "%s"
- Use: list_devices with room "%s"

**Step 2: Sample event history per room**
- For a few devices in each room, use: device_events with start "24h"

**Step 3: Compare system status scoped to each room**
- Use: system_status with scope "%s"
- Use: system_status with scope "%s"

**Step 4: Analyze differences**
I'll help you:
- Compare online/offline counts and connectivity findings
- Compare battery and automation findings between the two rooms
- Flag any room-specific pattern that doesn't appear in the other

Ready to start? Let's begin by listing devices in %s.`, roomA, roomB, roomA, roomB, roomA, roomB, roomA)

			return createPromptResult("Compare rooms workflow", content), nil
		},
	}
}

// troubleshootCommandFailuresPrompt creates the "troubleshoot_command_failures" prompt definition
func (r *Registry) troubleshootCommandFailuresPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "troubleshoot_command_failures",
			Title:       "Troubleshoot Command Failures",
			Description: "Systematic workflow for investigating a run of failed commands",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "device",
					Description: "Device id, name, or alias whose command failures to review",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			device := getStringArg(req.Params.Arguments, "device", "")

			var scopeLine string
			if device != "" {
				scopeLine = fmt.Sprintf("failed_commands with device %q", device)
			} else {
				scopeLine = "failed_commands with no device filter, to see failures across the whole fleet"
			}

			content := fmt.Sprintf(`Let's debug recent command failures systematically:

**Step 1: List recent failures**
- Use: %s

**Step 2: Check capability legality**
- For each failing command, use: validate_capability to confirm the device exposes that capability and to list the commands legal for it

**Step 3: Confirm the device is reachable**
- Use: device_status to check online/offline and last-seen state
- Use: test_connection if the adapter itself might be unreachable

**Step 4: Generate a diagnostic report**
- Use: diagnostic_report scoped to the affected device for a summary with recommendations

I'll help you classify whether this looks like a connectivity issue, an unsupported command, a rate limit, or something upstream in the automation bridge.`, scopeLine)

			return createPromptResult("Troubleshoot command failures workflow", content), nil
		},
	}
}

// reviewRetentionPrompt creates the "review_retention" prompt definition
func (r *Registry) reviewRetentionPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "review_retention",
			Title:       "Review Event Retention",
			Description: "Explain the server's event history retention window and how to work within it",
		},
		Handler: func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			content := `Event history served by device_events is bounded to a short retention
window (at most 7 days) and a per-call result limit. Here's how to work
within those limits:

1. **Check what's actually available** before assuming a gap is missing
   data: device_events returns a metadata block noting the window actually
   covered and any truncation.
2. **Page with start/end** rather than relying on a single large limit;
   narrower windows return more complete event sets.
3. **Watch for reported gaps**: device_events flags likely connectivity
   gaps in its response so you don't mistake a dropped connection for
   silence.
4. **Use diagnostic_report for anything older than the retention window**:
   it only reasons from what's still retained and will say so in its
   limitations section when data has aged out.

If you need a specific older incident investigated, ask as soon as
possible after it happens rather than after the retention window has
rolled past it.`

			return createPromptResult("Event retention review", content), nil
		},
	}
}

// testBridgeConnectionPrompt creates the "test_bridge_connection" prompt definition
func (r *Registry) testBridgeConnectionPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "test_bridge_connection",
			Title:       "Test Automation Bridge Connection",
			Description: "Verify the automation bridge adapter is reachable before troubleshooting",
		},
		Handler: func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			content := `I'll help you verify the automation bridge is reachable. Here's the workflow:

1. Run: test_connection
2. If it reports healthy, the adapter can reach the bridge and list
   locations successfully — any device issue you're chasing is most
   likely at the device or command level, not connectivity to the
   bridge itself.
3. If it reports unhealthy or times out, check the bridge's own status
   page or logs before troubleshooting individual devices — a bridge
   outage will look like widespread device unreachability in
   list_devices and device_status.

Shall I run test_connection now?`

			return createPromptResult("Test bridge connection", content), nil
		},
	}
}

// buildStatusReportPrompt creates the "build_status_report" prompt definition
func (r *Registry) buildStatusReportPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "build_status_report",
			Title:       "Build System Status Report",
			Description: "Guide through producing a scoped system status report",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "scope",
					Description: "Scope of the report: a room name, a capability, or 'all'",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			scope := getStringArg(req.Params.Arguments, "scope", "all")

			content := fmt.Sprintf(`I'll help you build a system status report scoped to %q. A report has five
branches: connectivity, battery, automation, anomalies, and index health.
Here's the process:

**Step 1: Run the aggregator**
- Use: system_status with scope "%s" and format "markdown" for a
  human-readable report, or format "structured" if you want the raw
  findings to post-process

**Step 2: Read each branch**
- connectivity: devices unreachable or flapping online/offline
- battery: devices reporting low or draining battery
- automation: scenes or automations that may be conflicting
- anomalies: every non-normal pattern-detector finding, including those
  already listed in the branches above
- index_health: whether the registry's online and offline device counts
  add up to its total
- for any branch that didn't run or only partly ran, check its
  "available"/"reason" fields

**Step 3: Drill into findings**
- For any finding naming a specific device, follow up with
  diagnostic_report for that device to get targeted recommendations

Ready? I'll start with system_status now unless you'd like to narrow the
scope further.`, scope, scope)

			return createPromptResult("Build system status report", content), nil
		},
	}
}

// capabilityTutorialPrompt creates the "capability_tutorial" prompt definition
func (r *Registry) capabilityTutorialPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "capability_tutorial",
			Title:       "Learn the Capability/Command Model",
			Description: "Interactive tutorial for understanding device capabilities and legal commands",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "skill_level",
					Description: "beginner, intermediate, or advanced",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			skillLevel := getStringArg(req.Params.Arguments, "skill_level", "beginner")

			var content string
			switch skillLevel {
			case "advanced":
				content = `# Capability Model — Advanced

Every device exposes a set of capabilities (switch, dimmer, lock,
thermostat, and so on), and every capability has a fixed set of legal
commands. execute_command rejects any command not in that set before it
ever reaches the bridge.

- Use validate_capability to check that a resolved device exposes a
  capability and to list that capability's legal commands, without
  sending anything.
- execute_command itself accepts a dry_run flag that returns the same
  validation result instead of executing, useful for building a
  confirmation step before a mutating call.
- Command attempts sent to the bridge, successful or not, are recorded
  by the command tracker; the failed ones show up in failed_commands with
  a classified failure kind (capability_unsupported, network,
  rate_limited, and so on). A command rejected as illegal is never sent
  and is not recorded.
- Scenes (execute_scene) are opaque bridge-defined bundles of commands;
  they don't go through per-capability validation the way a single
  execute_command call does.`
			case "intermediate":
				content = `# Capability Model — Intermediate

Before sending a command, resolve the device (list_devices or
device_status accept fuzzy names) and check its capability list. Then
call validate_capability with the capability you intend to use — it
tells you whether the device has that capability at all and lists the
commands legal for it, without touching the bridge.

Once you're confident, call execute_command with the same device,
capability, and command. Pass dry_run: true first if you want one more
look at the validation result before committing.`
			default:
				content = `# Capability Model — Beginner

Devices expose "capabilities" — think of a capability as a feature a
device has, like "switch" (on/off) or "dimmer" (brightness). Each
capability accepts only a specific set of commands.

1. Find a device: list_devices or device_status (fuzzy name matching
   works, so "kitchen light" is fine even if the exact name differs).
2. Check what it can do: look at the device's capabilities list in the
   response.
3. See which commands a capability accepts before sending one:
   validate_capability.
4. Send the command: execute_command.

Try it: list_devices, then pick one device and walk through
validate_capability followed by execute_command.`
			}

			return createPromptResult("Capability tutorial for "+skillLevel, content), nil
		},
	}
}

// quickStartPrompt creates the "quick_start" prompt definition
func (r *Registry) quickStartPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "quick_start",
			Title:       "Quick Start",
			Description: "Get started quickly with the device intelligence core — essential tools and workflows",
		},
		Handler: func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			content := `# Device Intelligence Core — Quick Start

**Find devices**
list_devices — filter by room, platform, capability, or online status

**Check one device**
device_status — resolves by id, exact name, alias, or fuzzy match

**Look at history**
device_events — time-windowed event query with gap detection

**Act on a device**
validate_capability then execute_command — or execute_scene for a
bridge-defined scene

**See what's gone wrong**
failed_commands — recent command failures, classified by kind

**Get the full picture**
diagnostic_report — one device, findings plus recommendations
system_status — fleet-wide connectivity/battery/automation/anomaly report

**Check the bridge itself**
test_connection — confirms the adapter can reach the automation bridge

Try: list_devices to see what's registered, then device_status on
anything that looks interesting.`

			return createPromptResult("Quick start guide", content), nil
		},
	}
}

// connectivityAuditPrompt creates the "connectivity_audit" prompt definition
func (r *Registry) connectivityAuditPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "connectivity_audit",
			Title:       "Connectivity Audit",
			Description: "Sweep the fleet for offline, flapping, or otherwise unreachable devices",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "focus_area",
					Description: "Optional room or platform to focus the audit on",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			focusArea := getStringArg(req.Params.Arguments, "focus_area", "")

			var scopeLine string
			if focusArea != "" {
				scopeLine = fmt.Sprintf("system_status with scope %q", focusArea)
			} else {
				scopeLine = `system_status with scope "all"`
			}

			content := fmt.Sprintf(`I'll help you audit connectivity across the fleet:

**Step 1: List offline devices**
- Use: list_devices with online false

**Step 2: Run the connectivity branch of the status report**
- Use: %s, then read the connectivity branch specifically

**Step 3: Check event history for flapping devices**
- For any device flagged as intermittently offline, use: device_events
  and look at the reported gaps and their severity

**Step 4: Rule out the bridge itself**
- Use: test_connection — if the bridge is unreachable, a wide swath of
  devices will look offline simultaneously; that's a bridge problem, not
  a per-device one

I'll help you tell apart a genuinely offline device from a bridge-wide
outage.`, scopeLine)

			return createPromptResult("Connectivity audit workflow", content), nil
		},
	}
}

// continueInvestigationPrompt creates the "continue_investigation" prompt definition
func (r *Registry) continueInvestigationPrompt() *PromptDefinition {
	return &PromptDefinition{
		Prompt: &mcp.Prompt{
			Name:        "continue_investigation",
			Title:       "Continue Investigation",
			Description: "Resume a device investigation with a fresh diagnostic report",
			Arguments: []*mcp.PromptArgument{
				{
					Name:        "device",
					Description: "Device id, name, or alias to re-check",
					Required:    false,
				},
				{
					Name:        "window_hours",
					Description: "How many hours back the diagnostic report should look",
					Required:    false,
				},
			},
		},
		Handler: func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			device := getStringArg(req.Params.Arguments, "device", "the device from before")
			windowHours := getStringArg(req.Params.Arguments, "window_hours", "24")

			content := fmt.Sprintf(`Picking this investigation back up on %s.

Run: diagnostic_report with device "%s" and window_hours %s to get a
fresh set of findings and recommendations. Compare it against what we
saw before:

- Has the device come back online, or is it still flagged?
- Are there new findings that weren't present earlier?
- Has a recommendation from the earlier report already been addressed?

If the report comes back "degraded_done" rather than "done", check its
limitations section — it means part of the evidence (events, command
history, or the registry entry itself) wasn't fully available this
time.`, device, device, windowHours)

			return createPromptResult("Continue investigation", content), nil
		},
	}
}
