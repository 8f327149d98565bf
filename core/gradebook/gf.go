package gradebook

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/roster"
)

// DefaultFormulaOutOf is the maximum score assumed for calculated
// ("AsstName = ...") assignments, whose header line carries no maximum.
const DefaultFormulaOutOf = 100

// The gf grammar is a compatibility contract with external consumers
// (grade posting, spreadsheet generators). Column positions of the status
// flags, comma placement and 1-decimal rounding are all part of it.
var (
	// <number><space><two status flags: blank/d/x><space><last><spaces><first...>
	gfStudentRe = regexp.MustCompile(`^(\d+) [ dx][ dx] ([^,]+)((?:\s+[^,]+)+)$`)
	// <number>*<spaces><free text>
	gfCommentRe = regexp.MustCompile(`^(\d+)\*\s+(.+)$`)
	// AsstName / MaxScore
	gfOutOfRe = regexp.MustCompile(`^(\w+)\s*/\s*(\d+)$`)
	// AsstName = <formula>
	gfFormulaRe = regexp.MustCompile(`^(\w+)\s*=`)
)

// gfFile is the parsed form of a gf grades file, keyed by student number.
type gfFile struct {
	assts    []string // header order; fixes the grade column order
	outofs   map[string]float64
	records  map[string]Record
	comments map[string]string
}

// parseGF reads the gf text format: a header block terminated by the first
// blank line, then one line per student plus optional comment lines.
func parseGF(r io.Reader, logger core.Logger) (*gfFile, error) {
	if logger == nil {
		logger = core.NopLogger()
	}
	gf := &gfFile{
		outofs:   make(map[string]float64),
		records:  make(map[string]Record),
		comments: make(map[string]string),
	}

	scanner := bufio.NewScanner(r)
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			if strings.TrimSpace(line) == "" {
				inHeader = false
				continue
			}
			gf.parseHeaderLine(line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := gf.parseBodyLine(line, logger); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading gf file")
	}
	if inHeader {
		return nil, errors.New("gf file has no blank line terminating the header")
	}
	return gf, nil
}

// parseHeaderLine collects an assignment declaration; the leading "*/,"
// marker and the `utorid " ! , 9` field line match neither shape and are
// simply skipped.
func (gf *gfFile) parseHeaderLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	if m := gfOutOfRe.FindStringSubmatch(line); m != nil {
		asst := core.CleanString(m[1])
		outof, _ := cleanGrade(m[2])
		gf.outofs[asst] = outof
		gf.assts = append(gf.assts, asst)
		return
	}
	if m := gfFormulaRe.FindStringSubmatch(line); m != nil {
		asst := core.CleanString(m[1])
		gf.outofs[asst] = DefaultFormulaOutOf
		gf.assts = append(gf.assts, asst)
	}
}

func (gf *gfFile) parseBodyLine(line string, logger core.Logger) error {
	fields := strings.Split(strings.TrimSpace(line), ",")

	if m := gfStudentRe.FindStringSubmatch(fields[0]); m != nil {
		student, err := roster.NewStudent(roster.Student{
			StudentNumber: m[1],
			Last:          m[2],
			First:         m[3],
			LoginID:       gfLoginID(fields),
		})
		if err != nil {
			return err
		}
		grades, err := gradesFromFields(gf.assts, gfGradeFields(fields))
		if err != nil {
			return err
		}
		gf.records[student.StudentNumber] = Record{Student: student, Grades: grades}
		return nil
	}

	if m := gfCommentRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		gf.comments[m[1]] = m[2]
		return nil
	}

	logger.Warn(fmt.Sprintf("skipping unrecognized gf line: %q", line))
	return nil
}

// gfLoginID returns the login id field of a data line: the first comma
// field after the name block, when it is not all digits.
func gfLoginID(fields []string) string {
	if len(fields) > 1 && !allDigits(fields[1]) {
		return fields[1]
	}
	return ""
}

// gfGradeFields returns the grade fields of a data line, past the optional
// login id field.
func gfGradeFields(fields []string) []string {
	if len(fields) == 1 {
		return nil
	}
	if !allDigits(fields[1]) {
		return fields[2:]
	}
	return fields[1:]
}

// gradesFromFields zips grade fields against the header assignment order.
// Missing trailing fields default to 0: partially graded cohorts are fine.
func gradesFromFields(assts []string, fields []string) (*Grades, error) {
	grades := NewGrades()
	for i, asst := range assts {
		field := "0"
		if i < len(fields) {
			field = fields[i]
		}
		if err := grades.AddRaw(asst, field); err != nil {
			return nil, err
		}
	}
	return grades, nil
}

type outOf struct {
	asst  string
	outof float64
}

// sortOutOfs orders assignments as given, or alphabetically if order is nil.
// An unknown assignment in order is an error.
func sortOutOfs(outofs map[string]float64, order []string) ([]outOf, error) {
	if order == nil {
		order = make([]string, 0, len(outofs))
		for asst := range outofs {
			order = append(order, asst)
		}
		sort.Strings(order)
	}
	sorted := make([]outOf, 0, len(order))
	for _, asst := range order {
		max, ok := outofs[asst]
		if !ok {
			return nil, errors.Wrapf(ErrNoSuchAssignment, "invalid assignment order %v: %s", order, asst)
		}
		sorted = append(sorted, outOf{asst: asst, outof: max})
	}
	return sorted, nil
}

// makeGFHeader renders the gf header block, without the terminating blank line.
func makeGFHeader(outofs []outOf, includeLoginID bool) string {
	var b strings.Builder
	b.WriteString("*/,\n")
	if includeLoginID {
		b.WriteString("utorid \" ! , 9\n")
	}
	for _, oo := range outofs {
		fmt.Fprintf(&b, "%s / %d\n", gfAsstName(oo.asst), int(oo.outof))
	}
	return b.String()
}

// gfAsstName rewrites an assignment name into gf header form: the format
// cannot represent spaces and parens, so they become underscores.
func gfAsstName(asst string) string {
	return strings.NewReplacer("(", "_", ")", "_", " ", "_").Replace(asst)
}

// makeGFStudentLine renders one student line with grades in the given
// order, rounded to 1 decimal, plus a second line when a comment is present.
// A nil grades renders a bare roster line (an empty gradebook).
func makeGFStudentLine(s roster.Student, includeLoginID bool, grades *Grades, outofs []outOf, comment string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s    %s %s", s.StudentNumber, s.Last, s.First)
	if includeLoginID {
		b.WriteString("," + s.LoginID)
	}
	if grades != nil {
		vals := make([]string, len(outofs))
		for i, oo := range outofs {
			grade, err := grades.Get(oo.asst)
			if err != nil {
				return "", errors.Wrapf(err, "student %s", s.StudentNumber)
			}
			vals[i] = formatGrade(grade)
		}
		b.WriteString("," + strings.Join(vals, ","))
	}
	b.WriteString("\n")
	if comment != "" {
		fmt.Fprintf(&b, "%s* %s\n", s.StudentNumber, comment)
	}
	return b.String(), nil
}

// WriteEmptyGF writes a gf file with a header and bare roster lines, no
// grades: the starting point for manual grade entry.
func WriteEmptyGF(w io.Writer, students *roster.Students, outofs map[string]float64, includeLoginID bool, sortKey roster.SortKey) error {
	sorted, err := sortOutOfs(outofs, nil)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, makeGFHeader(sorted, includeLoginID)+"\n"); err != nil {
		return errors.Wrap(err, "writing gf header")
	}
	for _, s := range students.All(sortKey) {
		line, err := makeGFStudentLine(s, includeLoginID, nil, nil, "")
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line); err != nil {
			return errors.Wrap(err, "writing gf student line")
		}
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
