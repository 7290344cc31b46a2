package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/auth"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a health check result
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Checker performs health checks against the platform adapter.
type Checker struct {
	adapter       platform.Adapter
	authenticator *auth.Authenticator
	logger        *zap.Logger
}

// New creates a new health checker.
func New(adapter platform.Adapter, authenticator *auth.Authenticator, logger *zap.Logger) *Checker {
	return &Checker{
		adapter:       adapter,
		authenticator: authenticator,
		logger:        logger,
	}
}

// CheckAll performs all health checks
func (c *Checker) CheckAll(ctx context.Context) (Status, []Check) {
	checks := []Check{
		c.checkAuthentication(),
		c.checkAdapterConnectivity(ctx),
	}

	overallStatus := StatusHealthy
	for _, check := range checks {
		if check.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		} else if check.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}

	return overallStatus, checks
}

// checkAuthentication verifies authentication is working
func (c *Checker) checkAuthentication() Check {
	start := time.Now()
	check := Check{
		Name:      "authentication",
		Timestamp: start,
	}

	err := c.authenticator.ValidateToken()
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = fmt.Sprintf("Authentication failed: %v", err)
		c.logger.Error("Health check failed: authentication",
			zap.Error(err),
			zap.Duration("duration", check.Duration),
		)
	} else {
		check.Status = StatusHealthy
		check.Message = "Authentication successful"
		c.logger.Debug("Health check passed: authentication",
			zap.Duration("duration", check.Duration),
		)
	}

	return check
}

// checkAdapterConnectivity verifies the platform adapter is reachable by
// listing locations, the cheapest read the adapter contract offers.
func (c *Checker) checkAdapterConnectivity(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:      "adapter_connectivity",
		Timestamp: start,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.adapter.ListLocations(checkCtx)
	check.Duration = time.Since(start)

	if err != nil {
		if check.Duration > 3*time.Second {
			check.Status = StatusDegraded
			check.Message = "Automation bridge responding slowly"
		} else {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("Automation bridge unreachable: %v", err)
		}
		c.logger.Warn("Health check failed: adapter connectivity",
			zap.Error(err),
			zap.Duration("duration", check.Duration),
		)
	} else {
		check.Status = StatusHealthy
		check.Message = "Automation bridge reachable"
		c.logger.Debug("Health check passed: adapter connectivity",
			zap.Duration("duration", check.Duration),
		)
	}

	return check
}
