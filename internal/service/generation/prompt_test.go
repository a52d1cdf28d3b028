package generation

import (
	"strings"
	"testing"

	"firmdesk/internal/domain/models"
)

func TestBuildPromptFieldOrderIsDeterministic(t *testing.T) {
	fields := map[string]string{
		"client":  "Acme Corp",
		"period":  "Q3 2026",
		"auditor": "J. Doe",
	}

	_, first := BuildPrompt(models.TypeReport, fields, "")
	for i := 0; i < 10; i++ {
		if _, again := BuildPrompt(models.TypeReport, fields, ""); again != first {
			t.Fatal("BuildPrompt() output varies across calls with identical input")
		}
	}

	// Sorted key order: auditor before client before period.
	a := strings.Index(first, "auditor:")
	c := strings.Index(first, "client:")
	p := strings.Index(first, "period:")
	if a == -1 || c == -1 || p == -1 || !(a < c && c < p) {
		t.Errorf("fields not emitted in sorted order:\n%s", first)
	}
}

func TestBuildPromptIncludesSkeleton(t *testing.T) {
	system, user := BuildPrompt(models.TypeReport, nil, "# Overview\n# Findings")

	if !strings.Contains(system, "report") {
		t.Errorf("system prompt missing document type: %s", system)
	}
	if !strings.Contains(user, "# Overview\n# Findings") {
		t.Errorf("user prompt missing template skeleton:\n%s", user)
	}
}

func TestBuildPromptWithoutSkeleton(t *testing.T) {
	_, user := BuildPrompt(models.TypeTemplate, map[string]string{"topic": "engagement letters"}, "")

	if strings.Contains(user, "Follow the structure") {
		t.Errorf("skeleton preamble emitted without a skeleton:\n%s", user)
	}
	if !strings.Contains(user, "topic: engagement letters") {
		t.Errorf("context field missing:\n%s", user)
	}
}
