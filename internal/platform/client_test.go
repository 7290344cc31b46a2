package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/config"
)

type mockAuthenticator struct{}

func (m *mockAuthenticator) Authenticate(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer test-token")
	return nil
}

func newTestClient(serverURL string) *Client {
	cfg := newTestConfig(serverURL)
	logger := zap.NewNop()

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		config:        cfg,
		logger:        logger,
		authenticator: &mockAuthenticator{},
		version:       "test",
	}
}

func newTestConfig(serverURL string) *config.Config {
	return &config.Config{
		PlatformBaseURL:  serverURL,
		PlatformAPIKey:   "test-api-key", // pragma: allowlist secret
		Timeout:          5 * time.Second,
		MaxRetries:       2,
		RetryWaitMin:     100 * time.Millisecond,
		RetryWaitMax:     500 * time.Millisecond,
		MaxIdleConns:     10,
		IdleConnTimeout:  30 * time.Second,
		TLSVerify:        false,
		EnableRateLimit:  false,
		AdapterTimeoutMs: 5000,
	}
}

type mockError struct{ msg string }

func (e *mockError) Error() string { return e.msg }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"connection reset error message", &mockError{msg: "connection reset by peer"}, true},
		{"connection refused error message", &mockError{msg: "connection refused"}, true},
		{"network unreachable error message", &mockError{msg: "network is unreachable"}, true},
		{"i/o timeout error message", &mockError{msg: "i/o timeout"}, true},
		{"TLS handshake timeout", &mockError{msg: "TLS handshake timeout"}, true},
		{"EOF error", &mockError{msg: "EOF"}, true},
		{"unknown error - not retryable", &mockError{msg: "some random error"}, false},
		{"authentication error - not retryable", &mockError{msg: "invalid credentials"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{"429 Too Many Requests", http.StatusTooManyRequests, true},
		{"500 Internal Server Error", http.StatusInternalServerError, true},
		{"502 Bad Gateway", http.StatusBadGateway, true},
		{"503 Service Unavailable", http.StatusServiceUnavailable, true},
		{"504 Gateway Timeout", http.StatusGatewayTimeout, true},
		{"200 OK - no retry", http.StatusOK, false},
		{"400 Bad Request - no retry", http.StatusBadRequest, false},
		{"401 Unauthorized - no retry", http.StatusUnauthorized, false},
		{"404 Not Found - no retry", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldRetry(tt.statusCode))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		statusCode int
		wantKind   string
	}{
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusForbidden, "unauthorized"},
		{http.StatusTooManyRequests, "rate_limited"},
		{http.StatusGatewayTimeout, "adapter_timeout"},
		{http.StatusServiceUnavailable, "adapter_unavailable"},
		{http.StatusInternalServerError, "adapter_other"},
	}
	for _, tt := range tests {
		err := classifyStatus(tt.statusCode, []byte("detail"))
		assert.Equal(t, tt.wantKind, string(err.Kind))
	}
}

func TestListDevices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/devices", r.URL.Path)
		assert.Equal(t, "kitchen", r.URL.Query().Get("room"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"zwave:1","name":"Kitchen Light","platform":"zwave","capabilities":["switch"],"online":true}]`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	devices, err := c.ListDevices(context.Background(), &DeviceFilter{Room: "kitchen"})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, DeviceID("zwave:1"), devices[0].ID)
	assert.True(t, devices[0].HasCapability(CapabilitySwitch))
}

func TestGetDeviceServiceUnavailableReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetDevice(context.Background(), "zwave:1")
	require.Error(t, err)
}

func TestExecuteCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"deviceId":"zwave:1","capability":"switch","command":"on","status":"success"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	result, err := c.ExecuteCommand(context.Background(), "zwave:1", CapabilitySwitch, "on", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Status)
}

func TestUserAgentHeader(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.ListDevices(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, gotUA, "devicecore-mcp/")
}
