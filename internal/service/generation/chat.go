package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"firmdesk/internal/config"
	"firmdesk/internal/domain"
)

// ChatProvider speaks the bearer-token chat-completions shape. Two logical
// providers (openai, deepseek) share this implementation, parameterized by
// base URL and model.
type ChatProvider struct {
	id      string
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// NewChatProvider creates a chat-completions adapter from its catalog spec.
func NewChatProvider(spec ProviderSpec) (*ChatProvider, error) {
	if spec.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if spec.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if spec.apiKey == "" {
		return nil, fmt.Errorf("API key is not configured")
	}

	return &ChatProvider{
		id:      spec.ID,
		baseURL: strings.TrimSuffix(spec.BaseURL, "/"),
		model:   spec.Model,
		apiKey:  spec.apiKey,
		client:  &http.Client{Timeout: config.GenerationTimeout},
	}, nil
}

// Name returns the provider id.
func (p *ChatProvider) Name() string {
	return p.id
}

// Generate performs one chat-completion round trip. The response text is
// read from choices.0.message.content; a 2xx response without text there
// yields empty output, which the caller's segmentation step rejects as
// malformed rather than unavailable.
func (p *ChatProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &domain.GenerationError{
			Provider: p.id,
			Message:  redactCredentials(err.Error()),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        "failed to read response body",
			UpstreamStatus: resp.StatusCode,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        "upstream rejected the request",
			UpstreamStatus: resp.StatusCode,
			Body:           truncateBody(body),
		}
	}

	return gjson.GetBytes(body, "choices.0.message.content").String(), nil
}

// truncateBody keeps a diagnostic slice of an upstream body.
func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > config.MaxErrorBodyBytes {
		s = s[:config.MaxErrorBodyBytes]
	}
	return s
}
