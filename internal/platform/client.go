package platform

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/elidunn/devicecore-mcp/internal/config"
	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/tracing"
)

// Authenticator is the interface for adding authentication to requests.
type Authenticator interface {
	Authenticate(req *http.Request) error
}

// Client is an HTTP implementation of Adapter against a home-automation
// bridge's REST API.
type Client struct {
	httpClient    *http.Client
	config        *config.Config
	logger        *zap.Logger
	rateLimiter   *rate.Limiter
	authenticator Authenticator
	version       string
	enableTracing bool
}

// RateLimitInfo describes the current rate-limit bucket state.
type RateLimitInfo struct {
	Limit     int     `json:"limit"`
	Burst     int     `json:"burst"`
	Available float64 `json:"available"`
	Enabled   bool    `json:"enabled"`
}

// New creates a platform adapter client.
func New(cfg *config.Config, authenticator Authenticator, logger *zap.Logger, version string) (*Client, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if !cfg.TLSVerify {
		tlsConfig.InsecureSkipVerify = true
		logger.Warn("TLS certificate verification is DISABLED - this is insecure and should only be used for testing",
			zap.String("platform_base_url", cfg.PlatformBaseURL),
		)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsConfig,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	var rateLimiter *rate.Limiter
	if cfg.EnableRateLimit {
		rateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)
	}

	if version == "" {
		version = "dev"
	}

	return &Client{
		httpClient:    httpClient,
		config:        cfg,
		logger:        logger,
		rateLimiter:   rateLimiter,
		authenticator: authenticator,
		version:       version,
		enableTracing: cfg.EnableTracing,
	}, nil
}

// GetRateLimitInfo returns the current rate-limit bucket state.
func (c *Client) GetRateLimitInfo() RateLimitInfo {
	info := RateLimitInfo{
		Limit:   c.config.RateLimit,
		Burst:   c.config.RateLimitBurst,
		Enabled: c.config.EnableRateLimit,
	}
	if c.rateLimiter != nil {
		info.Available = float64(c.rateLimiter.Tokens())
	}
	return info
}

func cryptoRandInt63() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	b[7] &= 0x7F
	var n int64
	for i := 0; i < 8; i++ {
		n |= int64(b[i]) << (8 * i)
	}
	return n
}

func cryptoRandDuration(maxVal int64) time.Duration {
	if maxVal <= 0 {
		return 0
	}
	return time.Duration(cryptoRandInt63() % maxVal)
}

// request is an internal HTTP request description.
type request struct {
	Method    string
	Path      string
	Query     map[string]string
	Body      interface{}
	RequestID string
	Timeout   time.Duration
}

// response is an internal HTTP response description.
type response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// do executes an HTTP request with retry logic.
func (c *Client) do(ctx context.Context, req *request) (*response, error) {
	var lastErr error
	var lastResp *response

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			waitTime := c.calculateRetryWait(attempt, lastResp)

			c.logger.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("wait", waitTime),
			)

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err != nil {
			lastErr = err
			lastResp = nil
			if isRetryable(err) {
				continue
			}
			return nil, err
		}

		if shouldRetry(resp.StatusCode) {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(resp.Body))
			lastResp = resp
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// calculateRetryWait determines the wait before the next retry attempt,
// honoring a Retry-After header when present, else exponential backoff
// with jitter.
func (c *Client) calculateRetryWait(attempt int, lastResp *response) time.Duration {
	if lastResp != nil && lastResp.StatusCode == http.StatusTooManyRequests {
		if retryAfter := c.parseRetryAfter(lastResp.Headers); retryAfter > 0 {
			jitter := cryptoRandDuration(int64(retryAfter) / 4)
			waitTime := retryAfter + jitter
			if waitTime > c.config.RetryWaitMax {
				waitTime = c.config.RetryWaitMax
			}
			c.logger.Debug("using Retry-After header for backoff",
				zap.Duration("retry_after", retryAfter),
				zap.Duration("jitter", jitter),
				zap.Duration("total_wait", waitTime),
			)
			return waitTime
		}
	}

	shift := min(attempt-1, 30)
	baseWait := c.config.RetryWaitMin * time.Duration(1<<shift)
	if baseWait > c.config.RetryWaitMax {
		baseWait = c.config.RetryWaitMax
	}

	jitter := cryptoRandDuration(int64(baseWait) / 4)
	return baseWait + jitter
}

// parseRetryAfter parses the Retry-After header, supporting delta-seconds
// and HTTP-date formats. Returns 0 if missing or invalid.
func (c *Client) parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
		if seconds > 0 && seconds <= time.Hour {
			return seconds
		}
		if seconds > time.Hour {
			c.logger.Warn("Retry-After value too large, capping at 1 hour", zap.String("retry_after", retryAfter))
			return time.Hour
		}
	}

	httpDateFormats := []string{
		time.RFC1123,
		time.RFC1123Z,
		time.RFC850,
		time.ANSIC,
	}
	for _, format := range httpDateFormats {
		if t, err := time.Parse(format, retryAfter); err == nil {
			waitTime := time.Until(t)
			if waitTime > 0 && waitTime <= time.Hour {
				return waitTime
			}
			if waitTime > time.Hour {
				c.logger.Warn("Retry-After date too far in future, capping at 1 hour", zap.String("retry_after", retryAfter))
				return time.Hour
			}
		}
	}

	c.logger.Warn("could not parse Retry-After header", zap.String("retry_after", retryAfter))
	return 0
}

func (c *Client) doRequest(ctx context.Context, req *request) (*response, error) {
	if err := c.applyRateLimit(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := c.applyTimeout(ctx, req)
	if cancel != nil {
		defer cancel()
	}

	requestURL := c.buildRequestURL(req)

	bodyReader, err := c.prepareBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(ctx, httpReq, req)

	if err := c.authenticator.Authenticate(httpReq); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	return c.executeRequest(httpReq, req, requestURL)
}

func (c *Client) applyRateLimit(ctx context.Context) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	return nil
}

func (c *Client) applyTimeout(ctx context.Context, req *request) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithTimeout(ctx, time.Duration(c.config.AdapterTimeoutMs)*time.Millisecond)
}

func (c *Client) buildRequestURL(req *request) string {
	requestURL := fmt.Sprintf("%s%s", c.config.PlatformBaseURL, req.Path)
	if len(req.Query) > 0 {
		params := url.Values{}
		for k, v := range req.Query {
			params.Add(k, v)
		}
		requestURL = fmt.Sprintf("%s?%s", requestURL, params.Encode())
	}
	return requestURL
}

func (c *Client) prepareBody(req *request) (io.Reader, error) {
	if req.Body == nil {
		return nil, nil
	}
	bodyBytes, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(bodyBytes), nil
}

func (c *Client) setHeaders(ctx context.Context, httpReq *http.Request, req *request) {
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", fmt.Sprintf("devicecore-mcp/%s", c.version))

	c.setTracingHeaders(ctx, httpReq)
	c.setIdempotencyHeaders(httpReq, req)
}

func (c *Client) setTracingHeaders(ctx context.Context, httpReq *http.Request) {
	if !c.enableTracing {
		return
	}
	traceInfo := tracing.FromContext(ctx)
	if traceInfo.TraceID == "" {
		traceInfo = tracing.NewTraceInfo()
	}
	for k, v := range traceInfo.Headers() {
		httpReq.Header.Set(k, v)
	}
}

func (c *Client) setIdempotencyHeaders(httpReq *http.Request, req *request) {
	if req.RequestID == "" {
		return
	}
	httpReq.Header.Set("X-Request-ID", req.RequestID)
	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		httpReq.Header.Set("Idempotency-Key", req.RequestID)
	}
}

func (c *Client) executeRequest(httpReq *http.Request, req *request, requestURL string) (*response, error) {
	c.logger.Debug("executing HTTP request",
		zap.String("method", req.Method),
		zap.String("url", requestURL),
	)

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("url", requestURL),
			zap.Duration("duration", duration),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", requestURL),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("response_size", len(body)),
	)

	return &response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// classifyStatus maps an HTTP status code to the fixed error taxonomy.
func classifyStatus(statusCode int, body []byte) *corerr.Error {
	detail := map[string]interface{}{"status_code": statusCode, "body": string(body)}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return corerr.New(corerr.Unauthorized, "adapter rejected credentials", detail)
	case http.StatusTooManyRequests:
		return corerr.New(corerr.RateLimited, "adapter rate limit exceeded", detail)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return corerr.New(corerr.AdapterTimeout, "adapter call timed out", detail)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return corerr.New(corerr.AdapterUnavailable, "adapter unavailable", detail)
	default:
		return corerr.New(corerr.AdapterOther, fmt.Sprintf("adapter returned HTTP %d", statusCode), detail)
	}
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, query map[string]string, body interface{}, out interface{}) error {
	resp, err := c.do(ctx, &request{Method: method, Path: path, Query: query, Body: body})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return corerr.Wrap(corerr.AdapterTimeout, "adapter call timed out", err, nil)
		}
		return corerr.Wrap(corerr.AdapterUnavailable, "adapter call failed", err, nil)
	}
	if resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, resp.Body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return corerr.Wrap(corerr.AdapterOther, "adapter returned unparseable response", err, nil)
	}
	return nil
}

// ListDevices lists devices, optionally narrowed by filter.
func (c *Client) ListDevices(ctx context.Context, filter *DeviceFilter) ([]Device, error) {
	query := map[string]string{}
	if filter != nil {
		if filter.Room != "" {
			query["room"] = filter.Room
		}
		if filter.Platform != "" {
			query["platform"] = filter.Platform
		}
		if filter.Capability != "" {
			query["capability"] = string(filter.Capability)
		}
	}
	var devices []Device
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/devices", query, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice fetches a single device by id.
func (c *Client) GetDevice(ctx context.Context, id DeviceID) (*Device, error) {
	var device Device
	path := "/v1/devices/" + url.PathEscape(string(id))
	if err := c.jsonRequest(ctx, http.MethodGet, path, nil, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// GetDeviceState fetches the per-capability attribute state of a device.
func (c *Client) GetDeviceState(ctx context.Context, id DeviceID) (map[Capability]map[string]interface{}, error) {
	var state map[Capability]map[string]interface{}
	path := "/v1/devices/" + url.PathEscape(string(id)) + "/state"
	if err := c.jsonRequest(ctx, http.MethodGet, path, nil, nil, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// ExecuteCommand issues a command to a device and classifies the outcome.
func (c *Client) ExecuteCommand(ctx context.Context, id DeviceID, capability Capability, command string, args map[string]interface{}, deadline time.Duration) (*CommandResult, error) {
	path := "/v1/devices/" + url.PathEscape(string(id)) + "/commands"
	body := map[string]interface{}{
		"capability": capability,
		"command":    command,
		"args":       args,
	}

	var result CommandResult
	reqCtx := ctx
	if deadline > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	if err := c.jsonRequest(reqCtx, http.MethodPost, path, nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListEvents fetches the device event history for a time window.
func (c *Client) ListEvents(ctx context.Context, req ListEventsRequest) ([]DeviceEvent, error) {
	query := map[string]string{
		"start": req.Start.UTC().Format(time.RFC3339),
		"end":   req.End.UTC().Format(time.RFC3339),
		"limit": strconv.Itoa(req.Limit),
	}
	if req.OldestFirst {
		query["order"] = "asc"
	} else {
		query["order"] = "desc"
	}
	if req.LocationID != "" {
		query["locationId"] = req.LocationID
	}
	if len(req.Capabilities) > 0 {
		caps := make([]string, len(req.Capabilities))
		for i, cp := range req.Capabilities {
			caps[i] = string(cp)
		}
		query["capabilities"] = strings.Join(caps, ",")
	}
	if len(req.Attributes) > 0 {
		query["attributes"] = strings.Join(req.Attributes, ",")
	}

	var events []DeviceEvent
	path := "/v1/devices/" + url.PathEscape(string(req.DeviceID)) + "/events"
	if err := c.jsonRequest(ctx, http.MethodGet, path, query, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListLocations is a passthrough to the adapter's location listing.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var locations []Location
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/locations", nil, nil, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// ListRooms is a passthrough to the adapter's room listing.
func (c *Client) ListRooms(ctx context.Context, locationID string) ([]Room, error) {
	query := map[string]string{}
	if locationID != "" {
		query["locationId"] = locationID
	}
	var rooms []Room
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/rooms", query, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListScenes is a passthrough to the adapter's scene listing.
func (c *Client) ListScenes(ctx context.Context, filter string) ([]Scene, error) {
	query := map[string]string{}
	if filter != "" {
		query["filter"] = filter
	}
	var scenes []Scene
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/scenes", query, nil, &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}

// ExecuteScene is a passthrough to the adapter's scene execution.
func (c *Client) ExecuteScene(ctx context.Context, id string) error {
	path := "/v1/scenes/" + url.PathEscape(id) + "/execute"
	return c.jsonRequest(ctx, http.MethodPost, path, nil, nil, nil)
}

// isRetryable determines if an error is a transient network error.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	var syscallErr *net.OpError
	if errors.As(err, &syscallErr) {
		if errors.Is(syscallErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(syscallErr.Err, syscall.ECONNRESET) ||
			errors.Is(syscallErr.Err, syscall.ENETUNREACH) ||
			errors.Is(syscallErr.Err, syscall.EHOSTUNREACH) ||
			errors.Is(syscallErr.Err, syscall.ETIMEDOUT) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	errStr := err.Error()
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"TLS handshake timeout",
		"EOF",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}

// shouldRetry determines if an HTTP status code should trigger a retry.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

var _ Adapter = (*Client)(nil)
