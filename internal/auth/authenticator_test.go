package auth

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
)

func TestNewAuthenticator(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	tests := []struct {
		name     string
		apiKey   string
		tokenURL string
		wantErr  bool
	}{
		{
			name:     "valid API key, static bearer",
			apiKey:   "test-api-key-12345", //nolint:gosec // test value, not a real secret
			tokenURL: "",
			wantErr:  false,
		},
		{
			name:     "valid API key with client-credentials token URL",
			apiKey:   "test-api-key-12345", //nolint:gosec // test value, not a real secret
			tokenURL: "https://auth.example.internal/oauth/token",
			wantErr:  false,
		},
		{
			name:     "empty API key",
			apiKey:   "",
			tokenURL: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.apiKey, tt.tokenURL, logger)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && a == nil {
				t.Error("Expected authenticator to be created")
			}
		})
	}
}

func TestAuthenticateStaticToken(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a, err := New("test-api-key", "", logger)
	if err != nil {
		t.Fatalf("Failed to create authenticator: %v", err)
	}

	req, _ := http.NewRequest("GET", "https://example.com", nil)

	if err := a.Authenticate(req); err != nil {
		t.Errorf("Authenticate() failed: %v", err)
	}

	authHeader := req.Header.Get("Authorization")
	if authHeader != "Bearer test-api-key" {
		t.Errorf("Expected bearer header, got %q", authHeader)
	}
}

func TestAuthenticateNilRequest(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a, err := New("test-api-key", "", logger)
	if err != nil {
		t.Fatalf("Failed to create authenticator: %v", err)
	}

	if err := a.Authenticate(nil); err == nil {
		t.Error("Expected error for nil request")
	}
}

func TestGetUserIdentityIsStableAndKeyed(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	a1, _ := New("key-one", "", logger)
	a2, _ := New("key-one", "", logger)
	a3, _ := New("key-two", "", logger)

	id1, err := a1.GetUserIdentity()
	if err != nil {
		t.Fatalf("GetUserIdentity() failed: %v", err)
	}
	id2, _ := a2.GetUserIdentity()
	id3, _ := a3.GetUserIdentity()

	if id1 != id2 {
		t.Errorf("expected identical identity for the same key, got %q vs %q", id1, id2)
	}
	if id1 == id3 {
		t.Error("expected distinct identity for distinct keys")
	}
	if len(id1) != 16 {
		t.Errorf("expected 16-character identity, got %d chars", len(id1))
	}
}

func TestGetToken(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a, err := New("test-api-key", "", logger)
	if err != nil {
		t.Fatalf("Failed to create authenticator: %v", err)
	}

	token, err := a.GetToken()
	if err != nil {
		t.Fatalf("GetToken() failed: %v", err)
	}
	if token != "test-api-key" {
		t.Errorf("expected static token to echo the API key, got %q", token)
	}
}
