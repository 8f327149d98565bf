package gradebook

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/roster"
)

// LMS gradebook exports are CSV: a column of "Last, First" student names,
// fixed metadata columns, and one column per assignment named "Name (id)".
const (
	lmsStudentCol       = "Student"
	lmsIDCol            = "ID"
	lmsLoginIDCol       = "SIS User ID"
	lmsIntegrationIDCol = "Integration ID"
	lmsSectionCol       = "Section"
	lmsSectionSep       = " and "

	// sentinel rows carrying no student data
	lmsMaxPointsName   = "Points Possible"
	lmsTestStudentName = "Student, Test"
)

// assignment columns are "AsstName (numericID)"
var lmsAsstRe = regexp.MustCompile(`^\w+(?: \w+)* \(\d+\)$`)

// reservedLMSColumns are metadata columns an LMS export always carries;
// they are never assignment columns even if they happen to look like one.
var reservedLMSColumns = map[string]bool{
	lmsStudentCol: true, lmsIDCol: true, lmsLoginIDCol: true,
	lmsIntegrationIDCol: true, "SIS Login ID": true, lmsSectionCol: true,
	"Assignments Current Points":            true,
	"Assignments Final Points":              true,
	"Assignments Current Score":             true,
	"Assignments Unposted Current Score":    true,
	"Assignments Final Score":               true,
	"Assignments Unposted Final Score":      true,
	"Deliverables Current Points":           true,
	"Deliverables Final Points":             true,
	"Deliverables Current Score":            true,
	"Deliverables Unposted Current Score":   true,
	"Deliverables Final Score":              true,
	"Deliverables Unposted Final Score":     true,
	"Current Points": true, "Final Points": true,
	"Current Score": true, "Unposted Current Score": true,
	"Final Score": true, "Unposted Final Score": true,
}

// lmsRow is one CSV row keyed by column name.
type lmsRow map[string]string

// parseLMSExport reads an LMS gradebook export into gf-equivalent parsed
// form, keyed by student number.
func parseLMSExport(r io.Reader, logger core.Logger) (*gfFile, error) {
	if logger == nil {
		logger = core.NopLogger()
	}
	rows, header, err := readLMSRows(r)
	if err != nil {
		return nil, err
	}

	gf := &gfFile{
		outofs:   make(map[string]float64),
		records:  make(map[string]Record),
		comments: make(map[string]string),
	}
	for _, col := range header {
		if isLMSAsstName(col) {
			gf.assts = append(gf.assts, core.CleanString(col))
		}
	}

	for _, row := range rows {
		name := core.CleanString(row[lmsStudentCol])
		if name == "" || name == lmsTestStudentName {
			continue
		}
		if name == lmsMaxPointsName {
			for _, asst := range gf.assts {
				outof, err := cleanGrade(row[asst])
				if err != nil {
					return nil, err
				}
				gf.outofs[asst] = outof
			}
			continue
		}

		student, err := studentFromLMSRow(row)
		if err != nil {
			return nil, err
		}
		grades := NewGrades()
		for _, asst := range gf.assts {
			if err := grades.AddRaw(asst, row[asst]); err != nil {
				return nil, err
			}
		}
		gf.records[student.StudentNumber] = Record{Student: student, Grades: grades}
	}
	return gf, nil
}

// LoadLMSClasslist reads an LMS export (possibly an empty gradebook) into a
// Students keyed by student number, ignoring any grade columns.
func LoadLMSClasslist(r io.Reader, logger core.Logger) (*roster.Students, error) {
	rows, _, err := readLMSRows(r)
	if err != nil {
		return nil, err
	}
	ss := roster.NewStudents(roster.AttrStudentNumber, logger)
	for _, row := range rows {
		name := core.CleanString(row[lmsStudentCol])
		if name == "" || name == lmsMaxPointsName || name == lmsTestStudentName {
			continue
		}
		student, err := studentFromLMSRow(row)
		if err != nil {
			return nil, err
		}
		ss.Add(student)
	}
	return ss, nil
}

func readLMSRows(r io.Reader) ([]lmsRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	raw, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading LMS export")
	}
	if len(raw) == 0 {
		return nil, nil, errors.New("empty LMS export")
	}
	header := raw[0]
	rows := make([]lmsRow, 0, len(raw)-1)
	for _, rec := range raw[1:] {
		row := make(lmsRow, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// studentFromLMSRow builds a Student from a data row: "Last, First" names,
// sections joined by " and ", the student number in the integration id
// column and the login id in the SIS user id column.
func studentFromLMSRow(row lmsRow) (roster.Student, error) {
	var last, first string
	names := strings.SplitN(row[lmsStudentCol], ",", 2)
	last = names[0]
	if len(names) > 1 {
		first = names[1]
	}

	var lecture, tutorial string
	sections := strings.SplitN(row[lmsSectionCol], lmsSectionSep, 2)
	lecture = sections[0]
	if len(sections) > 1 {
		tutorial = sections[1]
	}

	return roster.NewStudent(roster.Student{
		StudentNumber: row[lmsIntegrationIDCol],
		LoginID:       row[lmsLoginIDCol],
		First:         first,
		Last:          last,
		Lecture:       lecture,
		Tutorial:      tutorial,
		AltID1:        row[lmsIDCol],
	})
}

func isLMSAsstName(col string) bool {
	col = core.CleanString(col)
	if reservedLMSColumns[col] {
		return false
	}
	return lmsAsstRe.MatchString(col)
}
