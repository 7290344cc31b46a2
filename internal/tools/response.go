package tools

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	json "github.com/segmentio/encoding/json"
)

// Envelope is the standard tool response shape: a short human-readable
// summary alongside the full structured payload, so an LLM client can
// either read the prose or parse the data depending on what it needs next.
type Envelope struct {
	SummaryText       string      `json:"summary_text"`
	StructuredPayload interface{} `json:"structured_payload"`
}

// NewEnvelopeResult renders summary and payload into a tool result: the
// summary as the lead line, followed by the payload as an indented JSON
// block.
func NewEnvelopeResult(summary string, payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}

	text := fmt.Sprintf("%s\n\n```json\n%s\n```", summary, string(data))
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}
