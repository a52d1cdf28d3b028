package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"firmdesk/internal/config"
	"firmdesk/internal/domain"
)

// ernieAuthErrorCodes are the upstream application-level codes that mean
// the access token was rejected. The API reports them inside a 200
// response body.
var ernieAuthErrorCodes = map[int64]bool{
	110: true, // access token invalid
	111: true, // access token expired
}

// ErnieProvider speaks the two-phase shape: credentials are exchanged for
// a short-lived access token, which the generation call then carries as a
// query parameter. The token is cached in process memory only, shared
// read-only across requests, and invalidated on any authentication
// failure from the generation call.
type ErnieProvider struct {
	id           string
	genURL       string
	tokenURL     string
	model        string
	clientID     string
	clientSecret string
	client       *http.Client

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time

	fetch singleflight.Group
}

type ernieRequest struct {
	// The upstream message array is flat strings, not role/content pairs.
	Messages []string `json:"messages"`
}

// NewErnieProvider creates a two-phase adapter from its catalog spec.
func NewErnieProvider(spec ProviderSpec) (*ErnieProvider, error) {
	if spec.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if spec.TokenURL == "" {
		return nil, fmt.Errorf("token URL is required")
	}
	if spec.clientID == "" || spec.clientSecret == "" {
		return nil, fmt.Errorf("client credentials are not configured")
	}

	return &ErnieProvider{
		id:           spec.ID,
		genURL:       spec.BaseURL,
		tokenURL:     spec.TokenURL,
		model:        spec.Model,
		clientID:     spec.clientID,
		clientSecret: spec.clientSecret,
		client:       &http.Client{Timeout: config.GenerationTimeout},
	}, nil
}

// Name returns the provider id.
func (p *ErnieProvider) Name() string {
	return p.id
}

// Generate performs the two-phase round trip: ensure a live access token,
// then issue the generation call with the token as a query parameter. The
// response text sits at the "result" path. An authentication failure from
// the generation call invalidates the cached token so the next call
// re-authenticates; the failed call itself is not retried.
func (p *ErnieProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(ernieRequest{
		Messages: []string{systemPrompt, userPrompt},
	})
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	genURL := p.genURL + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, genURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		p.invalidateToken(token)
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        "access token rejected",
			UpstreamStatus: resp.StatusCode,
			Body:           truncateBody(body),
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

	// Application-level errors ride inside a 200 body.
	if code := gjson.GetBytes(body, "error_code"); code.Exists() && code.Int() != 0 {
		if ernieAuthErrorCodes[code.Int()] {
			p.invalidateToken(token)
		}
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        fmt.Sprintf("upstream error code %d", code.Int()),
			UpstreamStatus: resp.StatusCode,
			Body:           truncateBody(body),
		}
	}

	return gjson.GetBytes(body, "result").String(), nil
}

// accessToken returns the cached token, fetching a fresh one when the
// cache is empty or inside the refresh skew. Concurrent cache misses
// collapse into a single upstream exchange via singleflight.
func (p *ErnieProvider) accessToken(ctx context.Context) (string, error) {
	p.mu.RLock()
	token, expiry := p.token, p.tokenExpiry
	p.mu.RUnlock()

	if token != "" && time.Now().Before(expiry.Add(-config.TokenRefreshSkew)) {
		return token, nil
	}

	result, err, _ := p.fetch.Do("token", func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have already
		// stored a fresh token before we were scheduled.
		p.mu.RLock()
		cached, cachedExpiry := p.token, p.tokenExpiry
		p.mu.RUnlock()
		if cached != "" && time.Now().Before(cachedExpiry.Add(-config.TokenRefreshSkew)) {
			return cached, nil
		}

		return p.exchangeCredentials(ctx)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

// exchangeCredentials performs the token call and stores the result.
func (p *ErnieProvider) exchangeCredentials(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL+"?"+form.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &domain.GenerationError{
			Provider: p.id,
			Message:  "authentication call failed: " + redactCredentials(err.Error()),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        "failed to read token response",
			UpstreamStatus: resp.StatusCode,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        "authentication rejected",
			UpstreamStatus: resp.StatusCode,
			Body:           truncateBody(body),
		}
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", &domain.GenerationError{
			Provider:       p.id,
			Message:        "token response missing access_token",
			UpstreamStatus: resp.StatusCode,
			Body:           truncateBody(body),
		}
	}

	expiresIn := gjson.GetBytes(body, "expires_in").Int()
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	p.mu.Lock()
	p.token = token
	p.tokenExpiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	p.mu.Unlock()

	return token, nil
}

// invalidateToken drops the cached token, but only if it is still the one
// the failed call used; a concurrent refresh must not be discarded.
func (p *ErnieProvider) invalidateToken(used string) {
	p.mu.Lock()
	if p.token == used {
		p.token = ""
		p.tokenExpiry = time.Time{}
	}
	p.mu.Unlock()
}
