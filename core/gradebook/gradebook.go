package gradebook

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/roster"
)

var ErrNoSuchStudent = errors.New("no such student")

// Record pairs a Student with their Grades.
type Record struct {
	Student roster.Student
	Grades  *Grades
}

// GradeBook aggregates Student records and their Grades under one
// identifying attribute, with per-assignment maximum scores and free-text
// comments keyed the same way.
type GradeBook struct {
	key      roster.Attr
	records  map[string]Record
	outofs   map[string]float64
	comments map[string]string
	logger   core.Logger
}

// New returns an empty GradeBook keyed by key (AttrStudentNumber if empty).
// A nil logger discards warnings.
func New(key roster.Attr, logger core.Logger) *GradeBook {
	if key == "" {
		key = roster.AttrStudentNumber
	}
	if logger == nil {
		logger = core.NopLogger()
	}
	return &GradeBook{
		key:      key,
		records:  make(map[string]Record),
		outofs:   make(map[string]float64),
		comments: make(map[string]string),
		logger:   logger,
	}
}

// FromMaps builds a GradeBook from explicit maps. The maps are copied.
// Consistency is not enforced here; call SanityCheck for an advisory check.
func FromMaps(key roster.Attr, records map[string]Record, outofs map[string]float64, comments map[string]string, logger core.Logger) *GradeBook {
	gb := New(key, logger)
	for k, rec := range records {
		gb.records[k] = rec
	}
	for asst, outof := range outofs {
		gb.outofs[asst] = outof
	}
	for k, comment := range comments {
		gb.comments[k] = comment
	}
	return gb
}

// LoadGF parses a gf grades file and returns a GradeBook keyed by key.
// gf files are keyed by student number on disk; the book is re-keyed after
// parsing, dropping (with a warning) records lacking the key attribute.
func LoadGF(r io.Reader, key roster.Attr, logger core.Logger) (*GradeBook, error) {
	gf, err := parseGF(r, logger)
	if err != nil {
		return nil, err
	}
	gb := FromMaps(roster.AttrStudentNumber, gf.records, gf.outofs, gf.comments, logger)
	gb.Rekey(key)
	return gb, nil
}

// LoadLMSExport parses an LMS gradebook export and returns a GradeBook
// keyed by key.
func LoadLMSExport(r io.Reader, key roster.Attr, logger core.Logger) (*GradeBook, error) {
	gf, err := parseLMSExport(r, logger)
	if err != nil {
		return nil, err
	}
	gb := FromMaps(roster.AttrStudentNumber, gf.records, gf.outofs, gf.comments, logger)
	gb.Rekey(key)
	return gb, nil
}

func (gb *GradeBook) Key() roster.Attr { return gb.key }
func (gb *GradeBook) Len() int         { return len(gb.records) }

// OutOfs returns a copy of the assignment -> maximum score map.
func (gb *GradeBook) OutOfs() map[string]float64 {
	outofs := make(map[string]float64, len(gb.outofs))
	for asst, outof := range gb.outofs {
		outofs[asst] = outof
	}
	return outofs
}

// Assignments returns the declared assignment names, sorted.
func (gb *GradeBook) Assignments() []string {
	assts := make([]string, 0, len(gb.outofs))
	for asst := range gb.outofs {
		assts = append(assts, asst)
	}
	sort.Strings(assts)
	return assts
}

// Record returns the record stored under the given key attribute value.
func (gb *GradeBook) Record(keyVal string) (Record, bool) {
	rec, ok := gb.records[keyVal]
	return rec, ok
}

// Comment returns the comment stored under the given key attribute value.
func (gb *GradeBook) Comment(keyVal string) (string, bool) {
	comment, ok := gb.comments[keyVal]
	return comment, ok
}

// Records returns all records sorted by sortKey (ByName if nil).
func (gb *GradeBook) Records(sortKey roster.SortKey) []Record {
	if sortKey == nil {
		sortKey = roster.ByName
	}
	records := make([]Record, 0, len(gb.records))
	for _, rec := range gb.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return sortKey(records[i].Student) < sortKey(records[j].Student)
	})
	return records
}

// Students returns this GradeBook's students as a collection under the
// same key.
func (gb *GradeBook) Students() *roster.Students {
	ss := roster.NewStudents(gb.key, gb.logger)
	for _, rec := range gb.records {
		ss.Add(rec.Student)
	}
	return ss
}

// Rekey rebuilds the record and comment maps under a new identifying
// attribute. Records lacking the attribute are dropped with a warning,
// never an error. No-op when attr is already the key.
func (gb *GradeBook) Rekey(attr roster.Attr) {
	if attr == "" || attr == gb.key {
		return
	}
	records := make(map[string]Record, len(gb.records))
	comments := make(map[string]string, len(gb.comments))
	for oldKey, rec := range gb.records {
		newKey := rec.Student.Get(attr)
		if newKey == "" {
			gb.logger.Warn(fmt.Sprintf("student has no %s, dropped: %s", attr, rec.Student))
			continue
		}
		records[newKey] = rec
		if comment, ok := gb.comments[oldKey]; ok {
			comments[newKey] = comment
		}
	}
	gb.records = records
	gb.comments = comments
	gb.key = attr
}

// GradesBy returns the Grades of the student whose attr equals value, or
// ErrNoSuchStudent.
func (gb *GradeBook) GradesBy(attr roster.Attr, value string) (*Grades, error) {
	for _, rec := range gb.records {
		if rec.Student.Get(attr) == value {
			return rec.Grades, nil
		}
	}
	return nil, errors.Wrapf(ErrNoSuchStudent, "%s=%s", attr, value)
}

func (gb *GradeBook) GradesByStudentNumber(num string) (*Grades, error) {
	return gb.GradesBy(roster.AttrStudentNumber, num)
}

func (gb *GradeBook) GradesByLoginID(id string) (*Grades, error) {
	return gb.GradesBy(roster.AttrLoginID, id)
}

// Find returns the first record whose student matches any of the given
// attribute values.
func (gb *GradeBook) Find(search map[roster.Attr]string) (Record, bool) {
	for _, rec := range gb.records {
		for attr, value := range search {
			if value != "" && rec.Student.Get(attr) == value {
				return rec, true
			}
		}
	}
	return Record{}, false
}

// GradesFor collects one assignment's grade per student, keyed by attr.
// Students lacking attr are skipped with a warning; a student without the
// assignment is an error.
func (gb *GradeBook) GradesFor(asst string, attr roster.Attr) (map[string]float64, error) {
	grades := make(map[string]float64, len(gb.records))
	for _, rec := range gb.records {
		keyVal := rec.Student.Get(attr)
		if keyVal == "" {
			gb.logger.Warn(fmt.Sprintf("student has no %s: %s", attr, rec.Student))
			continue
		}
		grade, err := rec.Grades.Get(asst)
		if err != nil {
			return nil, errors.Wrapf(err, "student %s", keyVal)
		}
		grades[keyVal] = grade
	}
	return grades, nil
}

// WriteGF writes the gf text form: header, sorted student lines, comments.
// A nil assts means all assignments in alphabetical order; otherwise
// exactly the given order, erroring on an unknown assignment.
func (gb *GradeBook) WriteGF(w io.Writer, assts []string, includeLoginID bool, sortKey roster.SortKey) error {
	outofs, err := sortOutOfs(gb.outofs, assts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, makeGFHeader(outofs, includeLoginID)+"\n"); err != nil {
		return errors.Wrap(err, "writing gf header")
	}
	for _, rec := range gb.Records(sortKey) {
		comment := gb.comments[rec.Student.Get(gb.key)]
		line, err := makeGFStudentLine(rec.Student, includeLoginID, rec.Grades, outofs, comment)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line); err != nil {
			return errors.Wrap(err, "writing gf student line")
		}
	}
	return nil
}

// CSVOptions configures WriteCSV.
type CSVOptions struct {
	Attrs    []roster.Attr     // student columns, in order; nil = no student columns
	Assts    []string          // assignment columns, in order; nil = all, alphabetical
	Header   bool              // write a header row?
	Comments bool              // append the comment as a last column?
	Names    map[string]string // header overrides; key "comments" renames the comment column
	SortKey  roster.SortKey
}

// WriteCSV writes a generic tabular export: chosen student attributes, then
// chosen grades, then optionally the comment. A student missing one of the
// assignments is logged and skipped; the export completes for the rest.
func (gb *GradeBook) WriteCSV(w io.Writer, opts CSVOptions) error {
	assts := opts.Assts
	if assts == nil {
		assts = gb.Assignments()
	}
	if opts.Header {
		if _, err := fmt.Fprintln(w, gb.csvHeader(opts.Attrs, assts, opts.Comments, opts.Names)); err != nil {
			return errors.Wrap(err, "writing csv header")
		}
	}
	for _, rec := range gb.Records(opts.SortKey) {
		cols := make([]string, 0, len(opts.Attrs)+len(assts)+1)
		// nil attrs must mean no student columns, matching the header
		if len(opts.Attrs) > 0 {
			cols = append(cols, rec.Student.FullStr(opts.Attrs))
		}
		skip := false
		for _, asst := range assts {
			grade, err := rec.Grades.Get(asst)
			if err != nil {
				gb.logger.Warn(fmt.Sprintf("no grade for assignment %s, skipped: %s", asst, rec.Student))
				skip = true
				break
			}
			cols = append(cols, strconv.FormatFloat(grade, 'f', -1, 64))
		}
		if skip {
			continue
		}
		if opts.Comments {
			cols = append(cols, gb.comments[rec.Student.Get(gb.key)])
		}
		if _, err := fmt.Fprintln(w, strings.Join(cols, ",")); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	return nil
}

func (gb *GradeBook) csvHeader(attrs []roster.Attr, assts []string, comments bool, names map[string]string) string {
	rename := func(name string) string {
		if renamed, ok := names[name]; ok {
			return renamed
		}
		return name
	}
	cols := make([]string, 0, len(attrs)+len(assts)+1)
	for _, attr := range attrs {
		cols = append(cols, rename(string(attr)))
	}
	for _, asst := range assts {
		cols = append(cols, rename(asst))
	}
	if comments {
		cols = append(cols, rename("comments"))
	}
	return strings.Join(cols, ",")
}

// WriteSubmitCSV writes the registrar submit file: student number, the
// final grade rounded up and capped at 100, and a "y" flag for exam
// no-shows. asst names the final-mark assignment; noShows holds values of
// attr. A student without the final grade is logged and skipped.
func (gb *GradeBook) WriteSubmitCSV(w io.Writer, asst string, noShows []string, attr roster.Attr) error {
	noShow := make(map[string]bool, len(noShows))
	for _, v := range noShows {
		noShow[v] = true
	}
	for _, rec := range gb.Records(nil) {
		grade, err := rec.Grades.Get(asst)
		if err != nil {
			gb.logger.Warn(fmt.Sprintf("no grade for assignment %s, skipped: %s", asst, rec.Student))
			continue
		}
		// the submit file needs integers, never above 100
		final := int(math.Ceil(grade))
		if final > 100 {
			final = 100
		}
		flag := ""
		if noShow[rec.Student.Get(attr)] {
			flag = ",y"
		}
		if _, err := fmt.Fprintf(w, "%s,%d%s\n", rec.Student.StudentNumber, final, flag); err != nil {
			return errors.Wrap(err, "writing submit row")
		}
	}
	return nil
}

// SanityCheck validates the aggregate invariants: every record is stored
// under its own key attribute value, every grade set covers exactly the
// declared assignments, every comment belongs to a stored record. It logs
// each violation and returns false; it never raises and the book stays
// usable as-is.
func (gb *GradeBook) SanityCheck() bool {
	ok := true
	for keyVal, rec := range gb.records {
		if got := rec.Student.Get(gb.key); got != keyVal {
			gb.logger.Warn(fmt.Sprintf("invalid GradeBook: record keyed %q has %s=%q", keyVal, gb.key, got))
			ok = false
		}
		if rec.Grades != nil && !gb.coversAssignments(rec.Grades) {
			gb.logger.Warn(fmt.Sprintf("invalid GradeBook: grades %s do not match assignments %v for %s",
				rec.Grades, gb.Assignments(), rec.Student))
			ok = false
		}
	}
	for keyVal := range gb.comments {
		if _, found := gb.records[keyVal]; !found {
			gb.logger.Warn(fmt.Sprintf("invalid GradeBook: comment for unknown key %q", keyVal))
			ok = false
		}
	}
	return ok
}

func (gb *GradeBook) coversAssignments(grades *Grades) bool {
	if grades.Len() != len(gb.outofs) {
		return false
	}
	for _, asst := range grades.Assignments() {
		if _, ok := gb.outofs[asst]; !ok {
			return false
		}
	}
	return true
}

// Equal reports whether other has the same size, the same maximum scores,
// and for every record here a record matching on any identifying attribute
// with the same grades to 0.1 precision. Differing grades are logged with
// a diff; like Grades.Equal this comparison is one-sided by design.
func (gb *GradeBook) Equal(other *GradeBook) bool {
	if other == nil || len(gb.records) != len(other.records) {
		return false
	}
	if len(gb.outofs) != len(other.outofs) {
		return false
	}
	for asst, outof := range gb.outofs {
		if theirs, ok := other.outofs[asst]; !ok || theirs != outof {
			return false
		}
	}
	for _, rec := range gb.records {
		search := make(map[roster.Attr]string, len(roster.IdentifyingAttrs))
		for _, attr := range roster.IdentifyingAttrs {
			if v := rec.Student.Get(attr); v != "" {
				search[attr] = v
			}
		}
		theirs, found := other.Find(search)
		if !found {
			return false
		}
		if !rec.Grades.Equal(theirs.Grades) {
			gb.logger.Warn(fmt.Sprintf("different grades for %s:\n%s",
				rec.Student, diffGrades(rec.Grades, theirs.Grades)))
			return false
		}
	}
	return true
}

func diffGrades(ours, theirs *Grades) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ours.String()),
		B:        difflib.SplitLines(theirs.String()),
		FromFile: "ours",
		ToFile:   "theirs",
		Context:  1,
	})
	if err != nil {
		return fmt.Sprintf("%s vs %s", ours, theirs)
	}
	return diff
}

func (gb *GradeBook) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v\n\n", gb.outofs)
	for _, rec := range gb.Records(nil) {
		keyVal := rec.Student.Get(gb.key)
		fmt.Fprintf(&b, "%s: %s,%s,%s\n", keyVal, rec.Student, rec.Grades, gb.comments[keyVal])
	}
	return b.String()
}
