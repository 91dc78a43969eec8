package artifactstore

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
	"github.com/cuioss/plan-marshall/internal/toon"
)

var deliverableHeading = regexp.MustCompile(`^### Deliverable (\d+): (.*)$`)

// ReadOutline loads solution_outline.md: a markdown header (plan_id,
// compatibility) followed by one "### Deliverable N: Title" section per
// deliverable, each section body holding TOON key/value and array fields.
func (s *Store) ReadOutline(planID string) (*model.SolutionOutline, error) {
	path := s.PlanDir(planID) + "/" + outlineFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, planerrors.Wrap(planerrors.KindNotFound, "solution_outline.md", err)
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read solution_outline.md", err)
	}

	header, sections, err := splitOutline(string(data))
	if err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse solution_outline.md", err)
	}

	outline := &model.SolutionOutline{
		PlanID:        header.Get("plan_id"),
		Compatibility: model.Compatibility(firstField(header.Get("compatibility"))),
	}

	for _, sec := range sections {
		d, err := decodeDeliverable(sec.number, sec.title, sec.body)
		if err != nil {
			return nil, planerrors.Wrap(planerrors.KindInvariantViolation,
				fmt.Sprintf("deliverable %d", sec.number), err)
		}
		outline.Deliverables = append(outline.Deliverables, *d)
	}
	return outline, nil
}

// WriteOutline persists a SolutionOutline after validateOutline accepts it:
// deliverable numbers must be unique and ascending, affected files must not
// contain wildcards, and every deliverable must name at least one profile.
// The union of affected_files is not compared with references.toon here.
func (s *Store) WriteOutline(planID string, outline *model.SolutionOutline) error {
	if err := validateOutline(outline); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "plan_id: %s\n", outline.PlanID)
	fmt.Fprintf(&b, "compatibility: %s\n\n", string(outline.Compatibility))

	for _, d := range outline.Deliverables {
		fmt.Fprintf(&b, "### Deliverable %d: %s\n\n", d.Number, d.Title)
		b.WriteString(toon.Render(encodeDeliverable(&d)))
		b.WriteString("\n")
	}

	return atomicWriteFile(s.PlanDir(planID)+"/"+outlineFile, []byte(b.String()))
}

// validateOutline enforces that deliverable numbers are monotonically
// non-decreasing in creation order (as stored) and never repeated.
func validateOutline(outline *model.SolutionOutline) error {
	seen := make(map[int]bool)
	last := 0
	for _, d := range outline.Deliverables {
		if seen[d.Number] {
			return planerrors.Wrap(planerrors.KindInvariantViolation,
				fmt.Sprintf("deliverable number %d appears more than once", d.Number), nil)
		}
		seen[d.Number] = true
		if d.Number < last {
			return planerrors.Wrap(planerrors.KindInvariantViolation,
				fmt.Sprintf("deliverable number %d is out of monotonic order", d.Number), nil)
		}
		last = d.Number

		for _, f := range d.AffectedFiles {
			if strings.ContainsAny(f, "*?") {
				return planerrors.Wrap(planerrors.KindInvariantViolation,
					fmt.Sprintf("deliverable %d affected_files entry %q contains a wildcard", d.Number, f), nil)
			}
		}
		if len(d.Profiles) == 0 {
			return planerrors.Wrap(planerrors.KindInvariantViolation,
				fmt.Sprintf("deliverable %d has no profiles", d.Number), nil)
		}
	}
	return nil
}

func firstField(csv string) string {
	parts := strings.SplitN(csv, " ", 2)
	return strings.TrimSpace(parts[0])
}

type outlineSection struct {
	number int
	title  string
	body   string
}

// splitOutline separates the header block (before the first "### Deliverable"
// heading) from each deliverable section.
func splitOutline(doc string) (*toon.Document, []outlineSection, error) {
	lines := strings.Split(doc, "\n")

	var headerLines []string
	var sections []outlineSection
	var current *outlineSection
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.body = body.String()
			sections = append(sections, *current)
		}
		body.Reset()
	}

	inHeader := true
	for _, line := range lines {
		if m := deliverableHeading.FindStringSubmatch(line); m != nil {
			flush()
			inHeader = false
			num, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, fmt.Errorf("bad deliverable number in heading %q: %w", line, err)
			}
			current = &outlineSection{number: num, title: m[2]}
			continue
		}
		if inHeader {
			headerLines = append(headerLines, line)
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	header, err := toon.Parse(strings.Join(headerLines, "\n"))
	if err != nil {
		return nil, nil, fmt.Errorf("parse outline header: %w", err)
	}
	return header, sections, nil
}

func encodeDeliverable(d *model.Deliverable) *toon.Document {
	doc := &toon.Document{}
	doc.Set("number", strconv.Itoa(d.Number))
	doc.Set("change_type", string(d.ChangeType))
	doc.Set("execution_mode", string(d.ExecutionMode))
	doc.Set("domain", d.Domain)
	doc.Set("module", d.Module)
	doc.Set("verification_command", d.Verification.Command)
	doc.Set("verification_criteria", d.Verification.Criteria)

	profiles := make([]string, len(d.Profiles))
	for i, p := range d.Profiles {
		profiles[i] = string(p)
	}
	doc.Set("profiles", strings.Join(profiles, ","))

	depends := make([]string, len(d.Depends))
	for i, dep := range d.Depends {
		depends[i] = strconv.Itoa(dep)
	}
	doc.Set("depends", strings.Join(depends, ","))

	rows := make([][]string, 0, len(d.AffectedFiles))
	for _, f := range d.AffectedFiles {
		rows = append(rows, []string{f, d.ChangePerFile[f]})
	}
	doc.SetArray("affected_files", []string{"path", "change"}, rows)

	if len(d.SuccessCriteria) > 0 {
		scRows := make([][]string, len(d.SuccessCriteria))
		for i, c := range d.SuccessCriteria {
			scRows[i] = []string{c}
		}
		doc.SetArray("success_criteria", []string{"criterion"}, scRows)
	}
	return doc
}

func decodeDeliverable(number int, title, body string) (*model.Deliverable, error) {
	doc, err := toon.Parse(body)
	if err != nil {
		return nil, err
	}

	d := &model.Deliverable{
		Number:        number,
		Title:         strings.TrimSpace(title),
		ChangeType:    model.ChangeType(doc.Get("change_type")),
		ExecutionMode: model.ExecutionMode(doc.Get("execution_mode")),
		Domain:        doc.Get("domain"),
		Module:        doc.Get("module"),
		Verification: model.Verification{
			Command:  doc.Get("verification_command"),
			Criteria: doc.Get("verification_criteria"),
		},
		ChangePerFile: make(map[string]string),
	}

	if p := doc.Get("profiles"); p != "" {
		for _, v := range strings.Split(p, ",") {
			d.Profiles = append(d.Profiles, model.Profile(strings.TrimSpace(v)))
		}
	}
	if dep := doc.Get("depends"); dep != "" {
		for _, v := range strings.Split(dep, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err == nil {
				d.Depends = append(d.Depends, n)
			}
		}
	}

	if arr := doc.Array("affected_files"); arr != nil {
		for _, row := range toon.RowsToMaps(arr) {
			d.AffectedFiles = append(d.AffectedFiles, row["path"])
			if row["change"] != "" {
				d.ChangePerFile[row["path"]] = row["change"]
			}
		}
	}
	if arr := doc.Array("success_criteria"); arr != nil {
		for _, row := range toon.RowsToMaps(arr) {
			d.SuccessCriteria = append(d.SuccessCriteria, row["criterion"])
		}
	}
	return d, nil
}
