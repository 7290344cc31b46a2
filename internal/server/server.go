// Package server provides the MCP server implementation for the device
// intelligence core.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/audit"
	"github.com/elidunn/devicecore-mcp/internal/auth"
	"github.com/elidunn/devicecore-mcp/internal/config"
	"github.com/elidunn/devicecore-mcp/internal/diagnostics"
	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/health"
	"github.com/elidunn/devicecore-mcp/internal/metrics"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/prompts"
	"github.com/elidunn/devicecore-mcp/internal/registry"
	"github.com/elidunn/devicecore-mcp/internal/resources"
	"github.com/elidunn/devicecore-mcp/internal/status"
	"github.com/elidunn/devicecore-mcp/internal/tools"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

// Server represents the MCP server
type Server struct {
	mcpServer     *mcp.Server
	adapter       *platform.Client
	config        *config.Config
	logger        *zap.Logger
	metrics       *metrics.Metrics
	version       string
	healthServer  *health.Server
	authenticator *auth.Authenticator
	audit         *audit.Logger
}

// New creates a new MCP server instance.
func New(cfg *config.Config, logger *zap.Logger, version string) (*Server, error) {
	// Create authenticator for platform requests and health checks
	authenticator, err := auth.New(cfg.PlatformAPIKey, "", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	// Create automation bridge adapter client
	adapter, err := platform.New(cfg, authenticator, logger, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform adapter: %w", err)
	}

	metricsTracker := metrics.New(logger)

	// Build the core domain collaborators shared by every tool.
	reg := registry.New(cfg.FuzzyThreshold, logger, metricsTracker)
	eventsEngine := coreevents.New(adapter, cfg.RetentionDays, cfg.DefaultEventLimit, cfg.MaxEventLimit, logger, metricsTracker)
	cmdTracker := tracker.New(cfg.CommandRingSize, logger, metricsTracker)

	catalog, err := diagnostics.LoadCatalog(cfg.RecommendationCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation catalog: %w", err)
	}
	diagnosticsWorkflow := diagnostics.New(reg, eventsEngine, cmdTracker, catalog, logger)
	statusAggregator := status.New(reg, eventsEngine, cmdTracker, logger)

	// Create MCP server with tools, prompts, and resources capabilities
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "Device Intelligence Core MCP Server",
		Version: version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasPrompts:   true,
		HasResources: true,
	})

	s := &Server{
		mcpServer:     mcpServer,
		adapter:       adapter,
		config:        cfg,
		logger:        logger,
		metrics:       metricsTracker,
		version:       version,
		authenticator: authenticator,
		audit:         audit.NewLogger(logger, cfg.EnableAuditLog),
	}

	// Create health server if port is configured (port > 0)
	if cfg.HealthPort > 0 {
		healthChecker := health.New(adapter, authenticator, logger)
		s.healthServer = health.NewServer(healthChecker, logger, cfg.HealthPort, cfg.HealthBindAddr, cfg.MetricsEndpoint)
	}

	deps := &tools.Deps{
		Registry:    reg,
		Events:      eventsEngine,
		Tracker:     cmdTracker,
		Diagnostics: diagnosticsWorkflow,
		Status:      statusAggregator,
		Adapter:     adapter,
		Logger:      logger,
	}

	// Register all tools
	s.registerTools(deps)

	// Register all prompts
	s.registerPrompts()

	// Register all resources
	s.registerResources()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools(deps *tools.Deps) {
	for _, t := range tools.GetAllTools(deps) {
		s.registerTool(t)
	}

	s.logger.Info("Registered all MCP tools", zap.Int("count", tools.GetToolCount()))
}

// registerTool is a helper to register a tool with proper error handling.
// It accepts any type that implements the tools.Tool interface.
func (s *Server) registerTool(t tools.Tool) {
	toolName := t.Name()

	// Create tool definition with annotations
	mcpTool := &mcp.Tool{
		Name:        toolName,
		Description: t.Description(),
		InputSchema: t.InputSchema(),
		Annotations: t.Annotations(),
	}

	// Create handler that calls the tool's Execute method with metrics tracking
	handler := func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		// Add adapter to context for tool execution. This enables
		// per-request adapter injection for future multi-tenant transports
		// and for test doubles.
		ctx = tools.WithAdapter(ctx, s.adapter)

		var args map[string]interface{}
		if len(request.Params.Arguments) > 0 {
			if err := json.Unmarshal(request.Params.Arguments, &args); err != nil {
				s.metrics.RecordToolExecution(toolName, false, time.Since(start))
				return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
			}
		}

		result, err := t.Execute(ctx, args)
		duration := time.Since(start)
		success := err == nil && (result == nil || !result.IsError)
		s.metrics.RecordToolExecution(toolName, success, duration)

		operation := "query"
		if annotations := t.Annotations(); annotations != nil && !annotations.ReadOnlyHint {
			operation = "command"
		}
		resourceID, _ := args["device"].(string)
		s.audit.LogToolExecution(ctx, toolName, operation, "device", resourceID, success, duration, err)

		return result, err
	}

	// Register tool with MCP server
	s.mcpServer.AddTool(mcpTool, handler)
	s.logger.Debug("Registered tool", zap.String("tool", mcpTool.Name))
}

// registerPrompts registers all available MCP prompts
func (s *Server) registerPrompts() {
	registry := prompts.NewRegistry(s.logger)

	for _, p := range registry.GetPrompts() {
		s.mcpServer.AddPrompt(p.Prompt, p.Handler)
		s.logger.Debug("Registered prompt", zap.String("prompt", p.Prompt.Name))
	}

	s.logger.Info("Registered all MCP prompts", zap.Int("count", len(registry.GetPrompts())))
}

// registerResources registers all available MCP resources and resource templates
func (s *Server) registerResources() {
	registry := resources.NewRegistry(s.config, s.metrics, s.logger, s.version)

	// Register static resources
	for _, r := range registry.GetResources() {
		s.mcpServer.AddResource(r.Resource, r.Handler)
		s.logger.Debug("Registered resource", zap.String("uri", r.Resource.URI))
	}

	// Register resource templates for dynamic resource access
	templateHandler := registry.GetTemplateHandler()
	for _, t := range registry.GetResourceTemplates() {
		s.mcpServer.AddResourceTemplate(&t, templateHandler)
		s.logger.Debug("Registered resource template", zap.String("uri_template", t.URITemplate))
	}

	s.logger.Info("Registered all MCP resources",
		zap.Int("static_count", len(registry.GetResources())),
		zap.Int("template_count", len(registry.GetResourceTemplates())),
	)
}

// Start starts the MCP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server")

	// Start health HTTP server in background if configured
	if s.healthServer != nil {
		go func() {
			if err := s.healthServer.Start(); err != nil {
				s.logger.Error("Health server error", zap.Error(err))
			}
		}()
		// Mark as ready once server is starting
		s.healthServer.SetReady(true)
	}

	defer func() {
		// Log final metrics on shutdown
		s.metrics.LogStats()

		// Shutdown health server
		if s.healthServer != nil {
			s.healthServer.SetReady(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.healthServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Failed to shutdown health server", zap.Error(err))
			}
		}

		if err := s.adapter.Close(); err != nil {
			s.logger.Error("Failed to close platform adapter", zap.Error(err))
		}
	}()

	// Start serving using stdio transport
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// GetMetrics returns the server's metrics tracker for external access
func (s *Server) GetMetrics() *metrics.Metrics {
	return s.metrics
}
