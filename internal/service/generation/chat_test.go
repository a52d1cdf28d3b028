package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"firmdesk/internal/domain"
)

func newChatSpec(baseURL string) ProviderSpec {
	return ProviderSpec{
		ID:      "openai",
		Kind:    KindChat,
		Model:   "gpt-4o-mini",
		BaseURL: baseURL,
		apiKey:  "sk-test-key",
	}
}

func TestChatProviderGenerate(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"1. Overview\nGenerated text."}}]}`))
	}))
	defer server.Close()

	provider, err := NewChatProvider(newChatSpec(server.URL))
	if err != nil {
		t.Fatalf("NewChatProvider() error: %v", err)
	}

	text, err := provider.Generate(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if text != "1. Overview\nGenerated text." {
		t.Errorf("Generate() = %q", text)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("request path = %s", gotPath)
	}
	if gotAuth != "Bearer sk-test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Model != "gpt-4o-mini" {
		t.Errorf("model = %s", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotBody.Messages)
	}
}

func TestChatProviderUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	provider, _ := NewChatProvider(newChatSpec(server.URL))

	_, err := provider.Generate(context.Background(), "s", "u")
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error = %T, want *domain.GenerationError", err)
	}
	if genErr.UpstreamStatus != http.StatusTooManyRequests {
		t.Errorf("UpstreamStatus = %d, want 429", genErr.UpstreamStatus)
	}
	if !strings.Contains(genErr.Body, "rate limited") {
		t.Errorf("Body = %q, want upstream diagnostic", genErr.Body)
	}
	if genErr.StatusCode() != http.StatusBadGateway {
		t.Errorf("StatusCode() = %d, want 502", genErr.StatusCode())
	}
}

// A well-formed 2xx response that lacks the expected content path yields
// empty text, not a provider error; the segmentation step downstream
// rejects the emptiness as malformed output.
func TestChatProviderMissingContentPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider, _ := NewChatProvider(newChatSpec(server.URL))

	text, err := provider.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if text != "" {
		t.Errorf("Generate() = %q, want empty", text)
	}
}

func TestChatProviderSpecValidation(t *testing.T) {
	tests := []struct {
		name string
		spec ProviderSpec
	}{
		{"missing base URL", ProviderSpec{ID: "x", Model: "m", apiKey: "k"}},
		{"missing model", ProviderSpec{ID: "x", BaseURL: "https://api.example.com", apiKey: "k"}},
		{"missing API key", ProviderSpec{ID: "x", BaseURL: "https://api.example.com", Model: "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewChatProvider(tt.spec); err == nil {
				t.Error("NewChatProvider() expected error")
			}
		})
	}
}
