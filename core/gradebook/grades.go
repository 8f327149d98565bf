package gradebook

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

var (
	ErrNoSuchAssignment = errors.New("no such assignment")
	ErrInvalidGrade     = errors.New("invalid grade")
	ErrEmptyAssignment  = errors.New("empty assignment name")
)

// Grades maps assignment names to numeric grades for one student.
type Grades struct {
	grades map[string]float64
}

func NewGrades() *Grades {
	return &Grades{grades: make(map[string]float64)}
}

// GradesFromMap builds a Grades from already-numeric values, applying the
// usual assignment-name cleaning.
func GradesFromMap(grades map[string]float64) (*Grades, error) {
	g := NewGrades()
	for asst, grade := range grades {
		if err := g.Add(asst, grade); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add stores or overwrites the grade for an assignment. The name is trimmed
// and must be non-empty.
func (g *Grades) Add(asst string, grade float64) error {
	asst, err := cleanAsst(asst)
	if err != nil {
		return err
	}
	g.grades[asst] = grade
	return nil
}

// AddRaw stores the grade for an assignment from its text form.
// The empty string and the literal "gwr" coerce to 0; anything else
// non-numeric is an ErrInvalidGrade.
func (g *Grades) AddRaw(asst, grade string) error {
	val, err := cleanGrade(grade)
	if err != nil {
		return err
	}
	return g.Add(asst, val)
}

// Get returns the grade for an assignment, or ErrNoSuchAssignment.
func (g *Grades) Get(asst string) (float64, error) {
	grade, ok := g.grades[asst]
	if !ok {
		return 0, errors.Wrap(ErrNoSuchAssignment, asst)
	}
	return grade, nil
}

// Has reports whether a grade is recorded for the assignment.
func (g *Grades) Has(asst string) bool {
	_, ok := g.grades[asst]
	return ok
}

func (g *Grades) Len() int { return len(g.grades) }

// Assignments returns the recorded assignment names, sorted.
func (g *Grades) Assignments() []string {
	assts := make([]string, 0, len(g.grades))
	for asst := range g.grades {
		assts = append(assts, asst)
	}
	sort.Strings(assts)
	return assts
}

// Equal reports whether every assignment in g is present in other with the
// same grade to 0.1 precision. Assignments present only in other are
// ignored; the comparison is deliberately asymmetric.
func (g *Grades) Equal(other *Grades) bool {
	if other == nil {
		return false
	}
	for asst, grade := range g.grades {
		theirs, ok := other.grades[asst]
		if !ok {
			return false
		}
		if !GradesEqual(grade, theirs) {
			return false
		}
	}
	return true
}

// JSON renders the grades with sorted keys.
func (g *Grades) JSON() ([]byte, error) {
	return json.MarshalIndent(g.grades, "", "    ")
}

func (g *Grades) String() string {
	assts := g.Assignments()
	pairs := make([]string, len(assts))
	for i, asst := range assts {
		pairs[i] = fmt.Sprintf("%s: %s", asst, formatGrade(g.grades[asst]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// GradesEqual reports whether two grades are the same with 0.1 precision.
func GradesEqual(grade1, grade2 float64) bool {
	return round1(grade1) == round1(grade2)
}

func round1(grade float64) float64 {
	return math.Round(grade*10) / 10
}

// formatGrade renders a grade rounded to 1 decimal, without a trailing zero.
func formatGrade(grade float64) string {
	return strconv.FormatFloat(round1(grade), 'f', -1, 64)
}

func cleanGrade(grade string) (float64, error) {
	grade = core.CleanString(grade, true)
	if grade == "" || grade == "gwr" {
		return 0, nil
	}
	val, err := strconv.ParseFloat(grade, 64)
	if err != nil {
		return 0, core.NewValidationError(
			errors.Wrap(ErrInvalidGrade, grade),
			core.FieldError{Field: "grade", Error: fmt.Sprintf("invalid grade: %q", grade)})
	}
	return val, nil
}

func cleanAsst(asst string) (string, error) {
	asst = core.CleanString(asst)
	if asst == "" {
		return "", core.NewValidationError(
			ErrEmptyAssignment,
			core.FieldError{Field: "assignment", Error: "empty assignment name"})
	}
	return asst, nil
}
