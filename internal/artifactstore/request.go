package artifactstore

import (
	"os"
	"strings"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

const (
	sectionOriginal  = "## Original"
	sectionClarified = "## Clarified"
)

// ReadRequest loads request.md's two markdown sections.
func (s *Store) ReadRequest(planID string) (*model.Request, error) {
	path := s.PlanDir(planID) + "/" + requestFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, planerrors.Wrap(planerrors.KindNotFound, "request.md", err)
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read request.md", err)
	}
	sections := parseMarkdownSections(string(data))
	return &model.Request{
		Original:  strings.TrimSpace(sections[sectionOriginal]),
		Clarified: strings.TrimSpace(sections[sectionClarified]),
	}, nil
}

// WriteRequest persists request.md's two markdown sections. Clarified may be
// empty until the refine phase runs.
func (s *Store) WriteRequest(planID string, req *model.Request) error {
	var b strings.Builder
	b.WriteString(sectionOriginal)
	b.WriteString("\n\n")
	b.WriteString(req.Original)
	b.WriteString("\n\n")
	b.WriteString(sectionClarified)
	b.WriteString("\n\n")
	b.WriteString(req.Clarified)
	b.WriteString("\n")
	return atomicWriteFile(s.PlanDir(planID)+"/"+requestFile, []byte(b.String()))
}

// parseMarkdownSections splits a markdown document into "## Heading" ->
// body, scanning frontmatter/section
// boundaries with a line-oriented pass rather than a full markdown parser.
func parseMarkdownSections(doc string) map[string]string {
	sections := make(map[string]string)
	lines := strings.Split(doc, "\n")

	var heading string
	var body strings.Builder
	flush := func() {
		if heading != "" {
			sections[heading] = body.String()
		}
		body.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasPrefix(trimmed, "## ") {
			flush()
			heading = trimmed
			continue
		}
		if heading != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()
	return sections
}
