package docs

import (
	"errors"
	"testing"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		docType    models.DocumentType
		wantTitles []string
		wantBodies []string
		wantErr    bool
	}{
		{
			name:       "markdown headings",
			raw:        "# Overview\nFirst paragraph.\n\n## Details\nSecond paragraph.",
			docType:    models.TypeReport,
			wantTitles: []string{"Overview", "Details"},
			wantBodies: []string{"First paragraph.", "Second paragraph."},
		},
		{
			name:       "arabic numbered headings",
			raw:        "1. Background\nSome text.\n2. Findings\nMore text.",
			docType:    models.TypeReport,
			wantTitles: []string{"Background", "Findings"},
			wantBodies: []string{"Some text.", "More text."},
		},
		{
			name:       "roman numbered headings",
			raw:        "I. Introduction\nIntro body.\nII. Scope\nScope body.",
			docType:    models.TypeReport,
			wantTitles: []string{"Introduction", "Scope"},
			wantBodies: []string{"Intro body.", "Scope body."},
		},
		{
			name:       "preamble before first heading",
			raw:        "Lead-in sentence.\n# Summary\nBody.",
			docType:    models.TypeReport,
			wantTitles: []string{"Report Content", "Summary"},
			wantBodies: []string{"Lead-in sentence.", "Body."},
		},
		{
			name:       "no headings at all",
			raw:        "Just a flat wall of prose.\nWith two lines.",
			docType:    models.TypeTemplate,
			wantTitles: []string{"Template Content"},
			wantBodies: []string{"Just a flat wall of prose.\nWith two lines."},
		},
		{
			name:       "blank lines dropped inside body",
			raw:        "# One\nfirst\n\n\nsecond",
			docType:    models.TypeReport,
			wantTitles: []string{"One"},
			wantBodies: []string{"first\nsecond"},
		},
		{
			name:       "closing hashes stripped",
			raw:        "## Findings ##\nbody",
			docType:    models.TypeReport,
			wantTitles: []string{"Findings"},
			wantBodies: []string{"body"},
		},
		{
			name:       "heading with no body keeps empty body",
			raw:        "# Alpha\n# Beta\nbeta body",
			docType:    models.TypeReport,
			wantTitles: []string{"Alpha", "Beta"},
			wantBodies: []string{"", "beta body"},
		},
		{
			name:    "empty input",
			raw:     "",
			docType: models.TypeReport,
			wantErr: true,
		},
		{
			name:    "whitespace only input",
			raw:     "  \n\t\n  ",
			docType: models.TypeReport,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := Segment(tt.raw, tt.docType)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Segment() expected error, got %d sections", len(sections))
				}
				var malformed *domain.MalformedOutputError
				if !errors.As(err, &malformed) {
					t.Errorf("Segment() error = %T, want *domain.MalformedOutputError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Segment() unexpected error: %v", err)
			}
			if len(sections) != len(tt.wantTitles) {
				t.Fatalf("Segment() returned %d sections, want %d", len(sections), len(tt.wantTitles))
			}
			for i, section := range sections {
				if section.Title != tt.wantTitles[i] {
					t.Errorf("section %d title = %q, want %q", i, section.Title, tt.wantTitles[i])
				}
				if section.Body != tt.wantBodies[i] {
					t.Errorf("section %d body = %q, want %q", i, section.Body, tt.wantBodies[i])
				}
				if section.Order != i+1 {
					t.Errorf("section %d order = %d, want %d", i, section.Order, i+1)
				}
				if !section.Generated {
					t.Errorf("section %d should be marked generated", i)
				}
			}
		})
	}
}
