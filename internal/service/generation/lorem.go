package generation

import (
	"context"
	"fmt"
	"strings"

	loremgen "github.com/bozaro/golorem"
)

// LoremProvider is an offline backend that produces headed lorem ipsum
// text. Used for development and demos without real API keys; the output
// carries numbered headings so the section heuristic has something to
// find.
type LoremProvider struct {
	id        string
	generator *loremgen.Lorem
}

// NewLoremProvider creates a new lorem ipsum provider.
func NewLoremProvider(id string) *LoremProvider {
	return &LoremProvider{
		id:        id,
		generator: loremgen.New(),
	}
}

// Name returns the provider id.
func (p *LoremProvider) Name() string {
	return p.id
}

// Generate produces three numbered sections of filler prose. The prompts
// are ignored beyond a cancellation check.
func (p *LoremProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, "%d. %s\n", i, p.generator.Sentence(2, 4))
		b.WriteString(p.generator.Paragraph(2, 4))
		b.WriteString("\n\n")
	}

	return b.String(), nil
}
