package tools

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	json "github.com/segmentio/encoding/json"
)

var validate = validator.New()

// ValidateStruct runs struct-tag validation (e.g. `validate:"required"`) on
// a decoded argument struct, translating the first failing field into a
// plain-English message.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

// ValidationResult represents the result of a dry-run check against a
// mutating tool's arguments, before it is actually sent to the platform
// adapter.
type ValidationResult struct {
	Valid           bool                   `json:"valid"`
	Errors          []string               `json:"errors,omitempty"`
	Warnings        []string               `json:"warnings,omitempty"`
	Summary         map[string]interface{} `json:"summary,omitempty"`
	Suggestions     []string               `json:"suggestions,omitempty"`
	EstimatedImpact *ImpactEstimate        `json:"estimated_impact,omitempty"`
}

// ImpactEstimate describes the expected blast radius of an operation.
type ImpactEstimate struct {
	AffectedResources int    `json:"affected_resources,omitempty"`
	EstimatedLatency  string `json:"estimated_latency,omitempty"`
	RiskLevel         string `json:"risk_level,omitempty"`
}

// FormatDryRunResult renders a ValidationResult as markdown, including the
// submitted arguments for reference.
func FormatDryRunResult(result *ValidationResult, operation string, args map[string]interface{}) *mcp.CallToolResult {
	var b strings.Builder

	b.WriteString("## Dry-Run Validation Result\n\n")
	fmt.Fprintf(&b, "**Operation:** %s\n\n", operation)

	if result.Valid {
		b.WriteString("**Status:** valid, ready to execute\n\n")
	} else {
		b.WriteString("**Status:** invalid, fix the errors below first\n\n")
	}

	if len(result.Errors) > 0 {
		b.WriteString("### Errors\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString("### Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if len(result.Summary) > 0 {
		b.WriteString("### Summary\n\n")
		for k, v := range result.Summary {
			fmt.Fprintf(&b, "- %s: %v\n", k, v)
		}
		b.WriteString("\n")
	}

	if result.EstimatedImpact != nil {
		b.WriteString("### Estimated Impact\n\n")
		if result.EstimatedImpact.AffectedResources > 0 {
			fmt.Fprintf(&b, "- Affected devices: %d\n", result.EstimatedImpact.AffectedResources)
		}
		if result.EstimatedImpact.EstimatedLatency != "" {
			fmt.Fprintf(&b, "- Estimated latency: %s\n", result.EstimatedImpact.EstimatedLatency)
		}
		if result.EstimatedImpact.RiskLevel != "" {
			fmt.Fprintf(&b, "- Risk level: %s\n", result.EstimatedImpact.RiskLevel)
		}
		b.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		b.WriteString("### Suggestions\n\n")
		for _, s := range result.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("### Submitted Arguments\n\n```json\n")
	argBytes, _ := json.MarshalIndent(args, "", "  ")
	b.Write(argBytes)
	b.WriteString("\n```\n")

	if result.Valid {
		b.WriteString("\nRemove `dry_run: true` to actually execute this.\n")
	}

	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: b.String()}}}
}
