package config

import "time"

const (
	// MaxTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (titles should be short and descriptive).
	MaxTitleLength = 255

	// MaxContentLength caps document bodies. 1MB of text is far beyond
	// any real report; larger payloads indicate a misbehaving client.
	MaxContentLength = 1 << 20

	// MaxChangeNoteLength caps the free-text note attached to a revision.
	MaxChangeNoteLength = 500

	// MaxCommentLength caps reviewer comments.
	MaxCommentLength = 2000

	// MaxReviewersPerDocument caps one assignment request.
	MaxReviewersPerDocument = 20

	// MaxContextFieldLength caps each generation context field.
	MaxContextFieldLength = 4000

	// DefaultListLimit and MaxListLimit bound document listings.
	DefaultListLimit = 50
	MaxListLimit     = 200

	// GenerationTimeout bounds one provider round trip. A call that takes
	// longer surfaces as generation_unavailable rather than hanging the
	// request.
	GenerationTimeout = 60 * time.Second

	// TokenRefreshSkew renews a cached provider access token this long
	// before its advertised expiry so in-flight calls never carry a token
	// that expires mid-request.
	TokenRefreshSkew = 30 * time.Second

	// MaxErrorBodyBytes is how much of an upstream error body is kept for
	// diagnostics.
	MaxErrorBodyBytes = 512
)
