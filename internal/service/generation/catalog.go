package generation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"firmdesk/internal/config"
)

// ProviderKind selects the transport shape of an adapter.
type ProviderKind string

const (
	// KindChat is a single-call bearer-token chat-completion backend.
	// Several logical providers share this shape, differing only in base
	// URL and model.
	KindChat ProviderKind = "chat"
	// KindErnie is the two-phase backend: credentials are first exchanged
	// for a short-lived access token, then generation calls carry the
	// token as a query parameter.
	KindErnie ProviderKind = "ernie"
	// KindLorem is the offline development provider.
	KindLorem ProviderKind = "lorem"
)

// ProviderSpec is one catalog entry. Credentials are indirected through
// environment variable names so the YAML file never holds secrets.
type ProviderSpec struct {
	ID    string       `yaml:"id"`
	Kind  ProviderKind `yaml:"kind"`
	Model string       `yaml:"model,omitempty"`

	// Chat shape
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Ernie shape
	TokenURL        string `yaml:"token_url,omitempty"`
	ClientIDEnv     string `yaml:"client_id_env,omitempty"`
	ClientSecretEnv string `yaml:"client_secret_env,omitempty"`

	// Resolved credentials, never serialized
	apiKey       string `yaml:"-"`
	clientID     string `yaml:"-"`
	clientSecret string `yaml:"-"`
}

// LoadCatalog returns the provider catalog. When cfg.ProvidersFile is set
// it is parsed as YAML; otherwise the built-in defaults apply. Credentials
// are resolved from the environment here, once, so adapters never read env
// vars themselves.
func LoadCatalog(cfg *config.Config) ([]ProviderSpec, error) {
	if cfg.ProvidersFile == "" {
		return defaultCatalog(cfg), nil
	}

	data, err := os.ReadFile(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	var parsed struct {
		Providers []ProviderSpec `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	if len(parsed.Providers) == 0 {
		return nil, fmt.Errorf("providers file %s declares no providers", cfg.ProvidersFile)
	}

	seen := make(map[string]bool, len(parsed.Providers))
	for i := range parsed.Providers {
		spec := &parsed.Providers[i]
		if spec.ID == "" {
			return nil, fmt.Errorf("provider entry %d is missing an id", i)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate provider id '%s'", spec.ID)
		}
		seen[spec.ID] = true

		if spec.APIKeyEnv != "" {
			spec.apiKey = os.Getenv(spec.APIKeyEnv)
		}
		if spec.ClientIDEnv != "" {
			spec.clientID = os.Getenv(spec.ClientIDEnv)
		}
		if spec.ClientSecretEnv != "" {
			spec.clientSecret = os.Getenv(spec.ClientSecretEnv)
		}
	}

	return parsed.Providers, nil
}

// defaultCatalog wires the three standard backends plus the offline lorem
// provider used in dev and tests.
func defaultCatalog(cfg *config.Config) []ProviderSpec {
	return []ProviderSpec{
		{
			ID:      "openai",
			Kind:    KindChat,
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
			apiKey:  cfg.OpenAIAPIKey,
		},
		{
			ID:      "deepseek",
			Kind:    KindChat,
			Model:   "deepseek-chat",
			BaseURL: "https://api.deepseek.com/v1",
			apiKey:  cfg.DeepSeekAPIKey,
		},
		{
			ID:           "ernie",
			Kind:         KindErnie,
			Model:        "ernie-4.0-8k",
			BaseURL:      "https://aip.baidubce.com/rpc/2.0/ai_custom/v1/wenxinworkshop/chat/completions_pro",
			TokenURL:     "https://aip.baidubce.com/oauth/2.0/token",
			clientID:     cfg.ErnieClientID,
			clientSecret: cfg.ErnieClientSecret,
		},
		{
			ID:   "lorem",
			Kind: KindLorem,
		},
	}
}
