package models

// GenerationResult is the transient outcome of a provider call after
// section segmentation. It is returned to the caller as a preview and is
// never persisted; committing the content is a separate edit.
type GenerationResult struct {
	ProviderID string    `json:"provider_id"`
	RawText    string    `json:"raw_text"`
	Sections   []Section `json:"sections"`
}

// ProviderInfo describes one configured generation backend for the UI.
type ProviderInfo struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Model string `json:"model,omitempty"`
}
