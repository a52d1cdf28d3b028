package generation

import (
	"fmt"
	"sort"
	"strings"

	"firmdesk/internal/domain/models"
)

// BuildPrompt assembles the system/user prompt pair for a generation
// request. Context fields are emitted in sorted key order so the same
// request always produces the same prompt; an optional template skeleton
// is appended as the structure the output should follow.
func BuildPrompt(docType models.DocumentType, contextFields map[string]string, templateSkeleton string) (systemPrompt, userPrompt string) {
	systemPrompt = fmt.Sprintf(
		"You are drafting a %s for a professional services firm. "+
			"Write formal, well-structured prose. Organize the output into "+
			"numbered sections, each introduced by a heading line such as \"1. Background\".",
		strings.ToLower(docType.DisplayName()),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "Draft a %s using the following details.\n\n", strings.ToLower(docType.DisplayName()))

	keys := make([]string, 0, len(contextFields))
	for k := range contextFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, contextFields[k])
	}

	if templateSkeleton != "" {
		b.WriteString("\nFollow the structure of this template:\n\n")
		b.WriteString(templateSkeleton)
		b.WriteString("\n")
	}

	return systemPrompt, b.String()
}
