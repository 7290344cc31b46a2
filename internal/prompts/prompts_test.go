package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	if registry == nil {
		t.Fatal("expected non-nil registry")
	}
	if len(registry.GetPrompts()) == 0 {
		t.Error("expected prompts to be registered")
	}
}

func TestGetPrompts_ExpectedNamesPresent(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	expectedNames := map[string]bool{
		"investigate_device_issue":        true,
		"compare_rooms":                   true,
		"troubleshoot_command_failures":   true,
		"review_retention":                true,
		"test_bridge_connection":          true,
		"build_status_report":             true,
		"capability_tutorial":             true,
		"quick_start":                     true,
		"connectivity_audit":              true,
		"continue_investigation":          true,
	}

	prompts := registry.GetPrompts()
	if len(prompts) != len(expectedNames) {
		t.Errorf("expected %d prompts, got %d", len(expectedNames), len(prompts))
	}

	for _, p := range prompts {
		if p.Prompt == nil {
			t.Fatal("prompt definition is nil")
		}
		if _, ok := expectedNames[p.Prompt.Name]; !ok {
			t.Errorf("unexpected prompt name: %s", p.Prompt.Name)
		}
		delete(expectedNames, p.Prompt.Name)
		if p.Prompt.Description == "" {
			t.Errorf("prompt %s has empty description", p.Prompt.Name)
		}
		if p.Handler == nil {
			t.Errorf("prompt %s has nil handler", p.Prompt.Name)
		}
	}

	for name := range expectedNames {
		t.Errorf("missing expected prompt: %s", name)
	}
}

func findPrompt(t *testing.T, registry *Registry, name string) *PromptDefinition {
	t.Helper()
	for _, p := range registry.GetPrompts() {
		if p.Prompt.Name == name {
			return p
		}
	}
	t.Fatalf("prompt %q not found", name)
	return nil
}

func renderPrompt(t *testing.T, p *PromptDefinition, args map[string]string) string {
	t.Helper()
	req := &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Arguments: args}}
	result, err := p.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(result.Messages) == 0 {
		t.Fatal("result has no messages")
	}
	content, ok := result.Messages[0].Content.(*mcp.TextContent)
	if !ok {
		t.Fatal("message content is not TextContent")
	}
	return content.Text
}

func TestInvestigateDeviceIssuePrompt(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "investigate_device_issue")

	text := renderPrompt(t, p, map[string]string{"device": "Kitchen Light"})
	for _, want := range []string{"device_status", "device_events", "failed_commands", "diagnostic_report", "Kitchen Light"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected content to contain %q", want)
		}
	}
}

func TestCompareRoomsPrompt_DefaultsAndOverrides(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "compare_rooms")

	defaultText := renderPrompt(t, p, nil)
	if !strings.Contains(defaultText, "the living room") || !strings.Contains(defaultText, "the bedroom") {
		t.Error("expected default room names in content")
	}

	custom := renderPrompt(t, p, map[string]string{"room_a": "Office", "room_b": "Garage"})
	if !strings.Contains(custom, "Office") || !strings.Contains(custom, "Garage") {
		t.Error("expected custom room names in content")
	}
}

func TestTroubleshootCommandFailuresPrompt_ScopesToDevice(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "troubleshoot_command_failures")

	unscoped := renderPrompt(t, p, nil)
	if !strings.Contains(unscoped, "no device filter") {
		t.Error("expected fleet-wide scoping language with no device argument")
	}

	scoped := renderPrompt(t, p, map[string]string{"device": "Front Door Lock"})
	if !strings.Contains(scoped, "Front Door Lock") {
		t.Error("expected device name to appear when provided")
	}
}

func TestReviewRetentionPrompt_HasNoArguments(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "review_retention")

	if len(p.Prompt.Arguments) != 0 {
		t.Errorf("expected no arguments, got %d", len(p.Prompt.Arguments))
	}
	text := renderPrompt(t, p, nil)
	if !strings.Contains(text, "7 days") {
		t.Error("expected retention window to be mentioned")
	}
}

func TestBuildStatusReportPrompt_DefaultsScopeToAll(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "build_status_report")

	text := renderPrompt(t, p, nil)
	if !strings.Contains(text, `scope "all"`) {
		t.Error("expected default scope of all")
	}
}

func TestCapabilityTutorialPrompt_VariesBySkillLevel(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "capability_tutorial")

	beginner := renderPrompt(t, p, nil)
	if !strings.Contains(beginner, "Beginner") {
		t.Error("expected beginner content by default")
	}

	advanced := renderPrompt(t, p, map[string]string{"skill_level": "advanced"})
	if !strings.Contains(advanced, "Advanced") {
		t.Error("expected advanced content when requested")
	}
}

func TestQuickStartPrompt_MentionsAllTools(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "quick_start")

	text := renderPrompt(t, p, nil)
	for _, tool := range []string{
		"list_devices", "device_status", "device_events", "validate_capability",
		"execute_command", "execute_scene", "failed_commands",
		"diagnostic_report", "system_status", "test_connection",
	} {
		if !strings.Contains(text, tool) {
			t.Errorf("expected quick_start to mention tool %q", tool)
		}
	}
}

func TestConnectivityAuditPrompt_FocusArea(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "connectivity_audit")

	unfocused := renderPrompt(t, p, nil)
	if !strings.Contains(unfocused, `scope "all"`) {
		t.Error("expected fleet-wide scope with no focus area")
	}

	focused := renderPrompt(t, p, map[string]string{"focus_area": "Garage"})
	if !strings.Contains(focused, "Garage") {
		t.Error("expected focus area to appear in content")
	}
}

func TestContinueInvestigationPrompt_WindowHours(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	p := findPrompt(t, registry, "continue_investigation")

	defaultText := renderPrompt(t, p, nil)
	if !strings.Contains(defaultText, "window_hours 24") {
		t.Error("expected default window of 24 hours")
	}

	custom := renderPrompt(t, p, map[string]string{"device": "Thermostat", "window_hours": "72"})
	if !strings.Contains(custom, "window_hours 72") || !strings.Contains(custom, "Thermostat") {
		t.Error("expected custom window and device name in content")
	}
}

func TestGetStringArg(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]string
		key        string
		defaultVal string
		want       string
	}{
		{"key exists with value", map[string]string{"foo": "bar"}, "foo", "default", "bar"},
		{"key does not exist", map[string]string{"other": "value"}, "foo", "default", "default"},
		{"key exists but empty", map[string]string{"foo": ""}, "foo", "default", "default"},
		{"nil args", nil, "foo", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getStringArg(tt.args, tt.key, tt.defaultVal); got != tt.want {
				t.Errorf("getStringArg() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreatePromptResult(t *testing.T) {
	result := createPromptResult("Test description", "Test content")

	if result.Description != "Test description" {
		t.Errorf("Description = %q, want %q", result.Description, "Test description")
	}
	if len(result.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result.Messages))
	}
	msg := result.Messages[0]
	if msg.Role != "user" {
		t.Errorf("Role = %q, want %q", msg.Role, "user")
	}
	textContent, ok := msg.Content.(*mcp.TextContent)
	if !ok {
		t.Fatal("content is not TextContent")
	}
	if textContent.Text != "Test content" {
		t.Errorf("Text = %q, want %q", textContent.Text, "Test content")
	}
}
