package roster

import (
	"strings"

	"github.com/trezcool/kitabu/core"
)

// Attr names one Student field. Any Attr can order a classlist column;
// IdentifyingAttrs can additionally key a collection.
type Attr string

const (
	AttrLast          Attr = "last"
	AttrFirst         Attr = "first"
	AttrStudentNumber Attr = "student_number"
	AttrLoginID       Attr = "login_id"
	AttrRepoID        Attr = "repo_id"
	AttrEmail         Attr = "email"
	AttrLecture       Attr = "lecture_section"
	AttrTutorial      Attr = "tutorial_section"
	AttrAltID1        Attr = "external_id_1"
	AttrAltID2        Attr = "external_id_2"
)

var (
	// DefaultAttrOrder is the default column ordering for classlists and
	// string renderings. Callers wanting a different ordering pass their own.
	DefaultAttrOrder = []Attr{
		AttrLast, AttrFirst, AttrStudentNumber, AttrLoginID, AttrRepoID,
		AttrEmail, AttrLecture, AttrTutorial, AttrAltID1, AttrAltID2,
	}

	// IdentifyingAttrs are the attributes unique enough to key a collection
	// or to match records across sources.
	IdentifyingAttrs = []Attr{AttrStudentNumber, AttrLoginID, AttrRepoID}
)

// SortKey orders Students in serialized output.
type SortKey func(Student) string

// ByName sorts by last name, then first name. It is the default SortKey.
func ByName(s Student) string { return s.Last + s.First }

// Student is one enrolled person. Fields are validated and normalized by
// NewStudent and must not be mutated afterwards.
type Student struct {
	StudentNumber string
	LoginID       string
	Email         string
	First         string
	Last          string
	Lecture       string
	Tutorial      string
	RepoID        string
	AltID1        string
	AltID2        string
}

// NewStudent validates and normalizes raw field values into a Student.
// Empty fields stay empty; a malformed student number, login id or email is
// a hard error (core.ValidationError) and nothing is constructed.
func NewStudent(raw Student) (Student, error) {
	s := Student{
		First:    core.CleanString(raw.First),
		Last:     core.CleanString(raw.Last),
		Lecture:  core.CleanString(raw.Lecture),
		Tutorial: core.CleanString(raw.Tutorial),
		RepoID:   core.CleanString(raw.RepoID),
		AltID1:   core.CleanString(raw.AltID1),
		AltID2:   core.CleanString(raw.AltID2),
	}

	var err error
	if num := core.CleanString(raw.StudentNumber); num != "" {
		if s.StudentNumber, err = NormalizeStudentNumber(num); err != nil {
			return Student{}, err
		}
	}
	if id := core.CleanString(raw.LoginID); id != "" {
		if s.LoginID, err = ValidateLoginID(id); err != nil {
			return Student{}, err
		}
	}
	if email := core.CleanString(raw.Email); email != "" {
		if s.Email, err = ValidateEmail(email); err != nil {
			return Student{}, err
		}
	}
	return s, nil
}

// Get returns the value of the named attribute. Unknown attributes are empty.
func (s Student) Get(attr Attr) string {
	switch attr {
	case AttrLast:
		return s.Last
	case AttrFirst:
		return s.First
	case AttrStudentNumber:
		return s.StudentNumber
	case AttrLoginID:
		return s.LoginID
	case AttrRepoID:
		return s.RepoID
	case AttrEmail:
		return s.Email
	case AttrLecture:
		return s.Lecture
	case AttrTutorial:
		return s.Tutorial
	case AttrAltID1:
		return s.AltID1
	case AttrAltID2:
		return s.AltID2
	}
	return ""
}

// Matches reports whether s and other agree on any of the given attributes,
// ignoring attributes s has no value for. Without arguments it matches on
// IdentifyingAttrs. Note this is not an equivalence relation: a may match b
// on student number while b matches c on login id only.
func (s Student) Matches(other Student, by ...Attr) bool {
	if len(by) == 0 {
		by = IdentifyingAttrs
	}
	for _, attr := range by {
		if v := s.Get(attr); v != "" && v == other.Get(attr) {
			return true
		}
	}
	return false
}

// FullStr renders the student as comma-joined attribute values in the given
// order, skipping empty attributes. A nil ordering means DefaultAttrOrder.
func (s Student) FullStr(ordering []Attr) string {
	if ordering == nil {
		ordering = DefaultAttrOrder
	}
	attrs := make([]string, 0, len(ordering))
	for _, attr := range ordering {
		if v := s.Get(attr); v != "" {
			attrs = append(attrs, v)
		}
	}
	return strings.Join(attrs, ",")
}

func (s Student) String() string { return s.FullStr(nil) }
