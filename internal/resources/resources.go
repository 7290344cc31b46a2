// Package resources provides MCP resource handlers for the device
// intelligence core server. Resources expose read-only data to MCP
// clients for context and status information.
package resources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/config"
	"github.com/elidunn/devicecore-mcp/internal/metrics"
)

// Registry holds all registered resources and their handlers
type Registry struct {
	config  *config.Config
	metrics *metrics.Metrics
	logger  *zap.Logger
	version string
}

// NewRegistry creates a new resource registry
func NewRegistry(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger, version string) *Registry {
	return &Registry{
		config:  cfg,
		metrics: m,
		logger:  logger,
		version: version,
	}
}

// RegisteredResource represents a resource with its definition and handler
type RegisteredResource struct {
	Resource *mcp.Resource
	Handler  mcp.ResourceHandler
}

// GetResources returns all registered resources with their handlers
func (r *Registry) GetResources() []RegisteredResource {
	return []RegisteredResource{
		r.aboutResource(),
		r.configResource(),
		r.metricsResource(),
		r.healthResource(),
	}
}

// aboutResource returns the about://service resource with service aliases and description
func (r *Registry) aboutResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "about://service",
			Name:        "about://service",
			Title:       "About this server",
			Description: "Service information and capabilities for the device intelligence core",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			aboutInfo := map[string]interface{}{
				"service": map[string]interface{}{
					"name":        "Device Intelligence Core",
					"description": "Diagnostic and device-intelligence layer in front of a smart-home automation bridge: device registry, event history, pattern detection, and command/failure tracking exposed to an LLM client",
				},
				"capabilities": map[string]interface{}{
					"device_resolution":   "Fuzzy name/alias/id resolution over the device registry",
					"event_history":       "Time-windowed query over device event history with gap detection",
					"pattern_detection":   "Typed behavioral findings (automation triggers, rapid change, connectivity gaps, battery decline, automation conflicts)",
					"command_tracking":    "Command attempt ledger with failure classification",
					"system_status":       "Aggregated connectivity/battery/automation/anomaly status report",
				},
				"mcp_server": map[string]interface{}{
					"version":      r.version,
					"capabilities": []string{"tools", "prompts", "resources"},
				},
			}

			content, err := json.MarshalIndent(aboutInfo, "", "  ")
			if err != nil {
				r.logger.Error("Failed to marshal about info", zap.Error(err))
				return nil, err
			}

			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      "about://service",
						MIMEType: "application/json",
						Text:     string(content),
					},
				},
			}, nil
		},
	}
}

// configResource returns the config://current resource
func (r *Registry) configResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "config://current",
			Name:        "config://current",
			Title:       "Server Configuration",
			Description: "Current device intelligence core configuration (sensitive values masked)",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			safeConfig := map[string]interface{}{
				"platform_base_url":   r.config.PlatformBaseURL,
				"platform_api_key_set": r.config.PlatformAPIKey != "",
				"timeout":              r.config.Timeout.String(),
				"adapter_timeout_ms":   r.config.AdapterTimeoutMs,
				"max_retries":          r.config.MaxRetries,
				"rate_limit":           r.config.RateLimit,
				"rate_limit_burst":     r.config.RateLimitBurst,
				"rate_limit_enabled":   r.config.EnableRateLimit,
				"tls_verify":           r.config.TLSVerify,
				"fuzzy_threshold":      r.config.FuzzyThreshold,
				"command_ring_size":    r.config.CommandRingSize,
				"retention_days":       r.config.RetentionDays,
				"default_event_limit":  r.config.DefaultEventLimit,
				"max_event_limit":      r.config.MaxEventLimit,
				"system_status_sample": r.config.SystemStatusSample,
				"tracing_enabled":      r.config.EnableTracing,
				"audit_log_enabled":    r.config.EnableAuditLog,
				"log_level":            r.config.LogLevel,
				"log_format":           r.config.LogFormat,
				"server_version":       r.version,
			}

			content, err := json.MarshalIndent(safeConfig, "", "  ")
			if err != nil {
				r.logger.Error("Failed to marshal config", zap.Error(err))
				return nil, err
			}

			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      "config://current",
						MIMEType: "application/json",
						Text:     string(content),
					},
				},
			}, nil
		},
	}
}

// metricsResource returns the metrics://server resource
func (r *Registry) metricsResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "metrics://server",
			Name:        "metrics://server",
			Title:       "Server Metrics",
			Description: "Operational metrics including request counts, latency, and tool usage statistics",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			stats := r.metrics.GetStats()

			metricsData := map[string]interface{}{
				"requests": map[string]interface{}{
					"total":      stats.TotalRequests,
					"successful": stats.SuccessfulRequests,
					"failed":     stats.FailedRequests,
					"retried":    stats.RetriedRequests,
				},
				"rate_limiting": map[string]interface{}{
					"hits": stats.RateLimitHits,
				},
				"latency": map[string]interface{}{
					"average_ms": stats.AverageLatency.Milliseconds(),
					"max_ms":     stats.MaxLatency.Milliseconds(),
					"min_ms":     stats.MinLatency.Milliseconds(),
				},
				"errors_by_status": stats.ErrorsByStatus,
				"tools": map[string]interface{}{
					"usage":   stats.ToolUsage,
					"errors":  stats.ToolErrors,
					"latency": formatToolLatency(stats.ToolLatency),
				},
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}

			content, err := json.MarshalIndent(metricsData, "", "  ")
			if err != nil {
				r.logger.Error("Failed to marshal metrics", zap.Error(err))
				return nil, err
			}

			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      "metrics://server",
						MIMEType: "application/json",
						Text:     string(content),
					},
				},
			}, nil
		},
	}
}

// healthResource returns the health://status resource
func (r *Registry) healthResource() RegisteredResource {
	return RegisteredResource{
		Resource: &mcp.Resource{
			URI:         "health://status",
			Name:        "health://status",
			Title:       "Health Status",
			Description: "Current health status of the MCP server and automation bridge connectivity",
			MIMEType:    "application/json",
		},
		Handler: func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			stats := r.metrics.GetStats()

			var status string
			var statusMessage string
			errorRate := float64(0)
			if stats.TotalRequests > 0 {
				errorRate = float64(stats.FailedRequests) / float64(stats.TotalRequests) * 100
			}

			if errorRate > 50 {
				status = "unhealthy"
				statusMessage = "High error rate detected"
			} else if errorRate > 10 {
				status = "degraded"
				statusMessage = "Elevated error rate"
			} else {
				status = "healthy"
				statusMessage = "All systems operational"
			}

			healthData := map[string]interface{}{
				"status":  status,
				"message": statusMessage,
				"details": map[string]interface{}{
					"error_rate_percent": errorRate,
					"total_requests":     stats.TotalRequests,
					"failed_requests":    stats.FailedRequests,
					"rate_limit_hits":    stats.RateLimitHits,
				},
				"server": map[string]interface{}{
					"version": r.version,
				},
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}

			content, err := json.MarshalIndent(healthData, "", "  ")
			if err != nil {
				r.logger.Error("Failed to marshal health status", zap.Error(err))
				return nil, err
			}

			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      "health://status",
						MIMEType: "application/json",
						Text:     string(content),
					},
				},
			}, nil
		},
	}
}

// formatToolLatency converts time.Duration map to milliseconds for JSON
func formatToolLatency(latency map[string]time.Duration) map[string]int64 {
	result := make(map[string]int64, len(latency))
	for tool, duration := range latency {
		result[tool] = duration.Milliseconds()
	}
	return result
}

// GetResourceTemplates returns resource templates for common configurations.
// These templates help LLMs understand the structure of arguments they can
// pass before calling mutating tools.
func (r *Registry) GetResourceTemplates() []mcp.ResourceTemplate {
	return []mcp.ResourceTemplate{
		{
			URITemplate: "template://command/{capability}",
			Name:        "Command Argument Template",
			Description: "Template showing the legal commands and argument shapes for a capability. Use this before calling execute_command.",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "template://filter/{dimension}",
			Name:        "Device Filter Template",
			Description: "Template showing list_devices filter shapes. Supports dimensions 'room', 'platform', and 'capability'.",
			MIMEType:    "application/json",
		},
	}
}

// GetTemplateHandler returns a handler for resource templates
func (r *Registry) GetTemplateHandler() mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI

		var content map[string]interface{}

		switch {
		case matchTemplate(uri, "template://command/"):
			capability := extractTemplateName(uri, "template://command/")
			content = getCommandTemplate(capability)
		case matchTemplate(uri, "template://filter/"):
			dimension := extractTemplateName(uri, "template://filter/")
			content = getFilterTemplate(dimension)
		default:
			content = map[string]interface{}{
				"error": "Unknown template type",
				"available_templates": []string{
					"template://command/{capability}",
					"template://filter/{dimension}",
				},
			}
		}

		jsonContent, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			r.logger.Error("Failed to marshal template", zap.Error(err))
			return nil, err
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(jsonContent),
				},
			},
		}, nil
	}
}

func matchTemplate(uri, prefix string) bool {
	return len(uri) > len(prefix) && uri[:len(prefix)] == prefix
}

func extractTemplateName(uri, prefix string) string {
	return uri[len(prefix):]
}

// getCommandTemplate returns an example command invocation for a capability.
func getCommandTemplate(capability string) map[string]interface{} {
	examples := map[string]map[string]interface{}{
		"switch": {
			"command": "on",
			"args":    map[string]interface{}{},
		},
		"dimmer": {
			"command": "setLevel",
			"args":    map[string]interface{}{"level": 50},
		},
		"lock": {
			"command": "lock",
			"args":    map[string]interface{}{},
		},
		"thermostat": {
			"command": "setHeatingSetpoint",
			"args":    map[string]interface{}{"setpoint": 21.5},
		},
	}

	example, ok := examples[capability]
	if !ok {
		example = map[string]interface{}{
			"command": "<see validate_capability for legal commands>",
			"args":    map[string]interface{}{},
		}
	}

	return map[string]interface{}{
		"_template_info": map[string]interface{}{
			"description": "Command argument template for execute_command",
			"capability":  capability,
			"usage":       "Call validate_capability first if unsure which commands are legal, then pass this shape to execute_command",
		},
		"example":        example,
		"_related_tools": []string{"validate_capability", "execute_command"},
	}
}

// getFilterTemplate returns an example list_devices filter for a dimension.
func getFilterTemplate(dimension string) map[string]interface{} {
	switch dimension {
	case "room":
		return map[string]interface{}{
			"_template_info": map[string]interface{}{"description": "Filter devices by room", "dimension": "room"},
			"example":        map[string]interface{}{"room": "living room"},
			"_related_tools": []string{"list_devices"},
		}
	case "capability":
		return map[string]interface{}{
			"_template_info": map[string]interface{}{"description": "Filter devices by capability", "dimension": "capability"},
			"example":        map[string]interface{}{"capability": "lock"},
			"_related_tools": []string{"list_devices"},
		}
	default:
		return map[string]interface{}{
			"_template_info": map[string]interface{}{"description": "Filter devices by platform", "dimension": "platform"},
			"example":        map[string]interface{}{"platform": "zwave"},
			"_related_tools": []string{"list_devices"},
		}
	}
}
