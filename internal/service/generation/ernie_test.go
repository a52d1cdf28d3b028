package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"firmdesk/internal/domain"
)

// ernieTestServer bundles a fake token endpoint and generation endpoint.
type ernieTestServer struct {
	server     *httptest.Server
	tokenCalls atomic.Int64
	genCalls   atomic.Int64

	expiresIn int64
	// genHandler may be swapped per test to shape the generation response.
	genHandler func(w http.ResponseWriter, r *http.Request)
}

func newErnieTestServer() *ernieTestServer {
	ts := &ernieTestServer{expiresIn: 3600}
	ts.genHandler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"1. Findings\nGenerated text."}`))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/2.0/token", func(w http.ResponseWriter, r *http.Request) {
		n := ts.tokenCalls.Add(1)
		if r.URL.Query().Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d}`, n, ts.expiresIn)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		ts.genCalls.Add(1)
		ts.genHandler(w, r)
	})

	ts.server = httptest.NewServer(mux)
	return ts
}

func (ts *ernieTestServer) provider(t *testing.T) *ErnieProvider {
	t.Helper()
	provider, err := NewErnieProvider(ProviderSpec{
		ID:           "ernie",
		Kind:         KindErnie,
		Model:        "ernie-4.0-8k",
		BaseURL:      ts.server.URL + "/chat",
		TokenURL:     ts.server.URL + "/oauth/2.0/token",
		clientID:     "client-id",
		clientSecret: "client-secret",
	})
	if err != nil {
		t.Fatalf("NewErnieProvider() error: %v", err)
	}
	return provider
}

func TestErnieProviderTokenReuse(t *testing.T) {
	ts := newErnieTestServer()
	defer ts.server.Close()

	provider := ts.provider(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		text, err := provider.Generate(ctx, "system", "user")
		if err != nil {
			t.Fatalf("Generate() call %d error: %v", i, err)
		}
		if text != "1. Findings\nGenerated text." {
			t.Errorf("Generate() = %q", text)
		}
	}

	if got := ts.tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint called %d times, want 1", got)
	}
	if got := ts.genCalls.Load(); got != 3 {
		t.Errorf("generation endpoint called %d times, want 3", got)
	}
}

func TestErnieProviderTokenCarriedAsQueryParam(t *testing.T) {
	ts := newErnieTestServer()
	defer ts.server.Close()

	var gotToken string
	ts.genHandler = func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("access_token")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}

	provider := ts.provider(t)
	if _, err := provider.Generate(context.Background(), "s", "u"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if gotToken != "token-1" {
		t.Errorf("access_token param = %q, want token-1", gotToken)
	}
}

func TestErnieProviderExpiredTokenRefetches(t *testing.T) {
	ts := newErnieTestServer()
	defer ts.server.Close()

	// Expiry inside the refresh skew means the cached token is never
	// considered live, so the second call must re-authenticate.
	ts.expiresIn = 1

	provider := ts.provider(t)
	ctx := context.Background()

	if _, err := provider.Generate(ctx, "s", "u"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := provider.Generate(ctx, "s", "u"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if got := ts.tokenCalls.Load(); got != 2 {
		t.Errorf("token endpoint called %d times, want 2", got)
	}
}

func TestErnieProviderRejectedTokenInvalidatesCache(t *testing.T) {
	ts := newErnieTestServer()
	defer ts.server.Close()

	rejected := false
	ts.genHandler = func(w http.ResponseWriter, r *http.Request) {
		if !rejected {
			rejected = true
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}

	provider := ts.provider(t)
	ctx := context.Background()

	_, err := provider.Generate(ctx, "s", "u")
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error = %T, want *domain.GenerationError", err)
	}
	if genErr.UpstreamStatus != http.StatusUnauthorized {
		t.Errorf("UpstreamStatus = %d, want 401", genErr.UpstreamStatus)
	}

	// The failed call is not retried, but the next one re-authenticates.
	if _, err := provider.Generate(ctx, "s", "u"); err != nil {
		t.Fatalf("Generate() after invalidation error: %v", err)
	}
	if got := ts.tokenCalls.Load(); got != 2 {
		t.Errorf("token endpoint called %d times, want 2 (one re-auth)", got)
	}
}

func TestErnieProviderAuthErrorCodeInsideOKBody(t *testing.T) {
	ts := newErnieTestServer()
	defer ts.server.Close()

	expired := false
	ts.genHandler = func(w http.ResponseWriter, r *http.Request) {
		if !expired {
			expired = true
			_, _ = w.Write([]byte(`{"error_code":111,"error_msg":"access token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}

	provider := ts.provider(t)
	ctx := context.Background()

	_, err := provider.Generate(ctx, "s", "u")
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error = %T, want *domain.GenerationError", err)
	}

	if _, err := provider.Generate(ctx, "s", "u"); err != nil {
		t.Fatalf("Generate() after token-expired code error: %v", err)
	}
	if got := ts.tokenCalls.Load(); got != 2 {
		t.Errorf("token endpoint called %d times, want 2", got)
	}
}

func TestErnieProviderNonAuthErrorCodeKeepsToken(t *testing.T) {
	ts := newErnieTestServer()
	defer ts.server.Close()

	failed := false
	ts.genHandler = func(w http.ResponseWriter, r *http.Request) {
		if !failed {
			failed = true
			_, _ = w.Write([]byte(`{"error_code":336002,"error_msg":"invalid argument"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}

	provider := ts.provider(t)
	ctx := context.Background()

	if _, err := provider.Generate(ctx, "s", "u"); err == nil {
		t.Fatal("Generate() expected upstream error")
	}
	if _, err := provider.Generate(ctx, "s", "u"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got := ts.tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint called %d times, want 1 (token kept)", got)
	}
}

// Transport errors embed the request URL, which for the token exchange
// carries client credentials as query parameters. Those must never reach
// logs or API responses.
func TestErnieProviderCredentialsRedactedFromErrors(t *testing.T) {
	provider, err := NewErnieProvider(ProviderSpec{
		ID:           "ernie",
		Kind:         KindErnie,
		BaseURL:      "http://127.0.0.1:1/chat",
		TokenURL:     "http://127.0.0.1:1/token",
		clientID:     "super-secret-id",
		clientSecret: "super-secret-value",
	})
	if err != nil {
		t.Fatalf("NewErnieProvider() error: %v", err)
	}

	_, err = provider.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() expected transport error")
	}
	msg := err.Error()
	if strings.Contains(msg, "super-secret-id") || strings.Contains(msg, "super-secret-value") {
		t.Errorf("error leaks credentials: %s", msg)
	}
	if !strings.Contains(msg, "REDACTED") {
		t.Errorf("error not redacted: %s", msg)
	}
}
