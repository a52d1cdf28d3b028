package docs

import (
	"regexp"
	"strings"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
)

// Heading detection is a heuristic, not a grammar. A body line that
// happens to read "1. Foo" will be taken for a heading; that ambiguity is
// accepted, and the parser always degrades to a single generic section
// rather than failing.
var (
	markdownHeading = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`)
	romanHeading    = regexp.MustCompile(`^\s*[IVXLCDM]+\.\s+(.+)$`)
	arabicHeading   = regexp.MustCompile(`^\s*\d{1,3}\.\s+(.+)$`)
)

// headingTitle returns the stripped heading text when the line matches one
// of the heading shapes.
func headingTitle(line string) (string, bool) {
	for _, re := range []*regexp.Regexp{markdownHeading, romanHeading, arabicHeading} {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// Segment decomposes generated text into ordered, titled sections.
//
// A heading line starts a new section; subsequent non-blank, non-heading
// lines accumulate into its body. Blank lines are dropped from bodies but
// do not terminate a section. Text with no recognizable heading becomes a
// single section titled from the document type. Only empty input fails:
// that is the one case where not even the fallback section can be built.
func Segment(raw string, docType models.DocumentType) ([]models.Section, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &domain.MalformedOutputError{Message: "generated text is empty"}
	}

	fallbackTitle := docType.DisplayName() + " Content"

	var sections []models.Section
	var current *models.Section
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.Join(body, "\n")
		sections = append(sections, *current)
		current = nil
		body = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		if title, ok := headingTitle(line); ok {
			flush()
			current = &models.Section{Title: title, Generated: true}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if current == nil {
			// Preamble before the first heading gets the generic title.
			current = &models.Section{Title: fallbackTitle, Generated: true}
		}
		body = append(body, strings.TrimRight(line, " \t"))
	}
	flush()

	for i := range sections {
		sections[i].Order = i + 1
	}

	return sections, nil
}
