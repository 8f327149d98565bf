package roster

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
)

// Students is a collection of Student records keyed by one identifying
// attribute. At most one record per key value; adding a duplicate key
// overwrites. A per-identifying-attribute index supports lookup by any
// identifying attribute regardless of the primary key.
type Students struct {
	key     Attr
	records map[string]Student
	index   map[Attr]map[string]string // attr -> value -> primary key
	logger  core.Logger
}

// NewStudents returns a Students keyed by key (AttrStudentNumber if empty).
// A nil logger discards warnings.
func NewStudents(key Attr, logger core.Logger, students ...Student) *Students {
	if key == "" {
		key = AttrStudentNumber
	}
	if logger == nil {
		logger = core.NopLogger()
	}
	ss := &Students{
		key:     key,
		records: make(map[string]Student),
		index:   make(map[Attr]map[string]string),
		logger:  logger,
	}
	for _, s := range students {
		ss.Add(s)
	}
	return ss
}

func (ss *Students) Key() Attr { return ss.key }
func (ss *Students) Len() int  { return len(ss.records) }

// Add inserts or overwrites the record under its key attribute value.
// A record lacking the key attribute is dropped with a warning.
func (ss *Students) Add(s Student) {
	keyVal := s.Get(ss.key)
	if keyVal == "" {
		ss.logger.Warn(fmt.Sprintf("student has no %s, dropped: %s", ss.key, s))
		return
	}
	if old, ok := ss.records[keyVal]; ok {
		ss.dropIndex(old)
	}
	ss.records[keyVal] = s
	for _, attr := range IdentifyingAttrs {
		if v := s.Get(attr); v != "" {
			if ss.index[attr] == nil {
				ss.index[attr] = make(map[string]string)
			}
			ss.index[attr][v] = keyVal
		}
	}
}

func (ss *Students) dropIndex(s Student) {
	for _, attr := range IdentifyingAttrs {
		if v := s.Get(attr); v != "" {
			delete(ss.index[attr], v)
		}
	}
}

// Get returns the record stored under the given key attribute value.
func (ss *Students) Get(keyVal string) (Student, bool) {
	s, ok := ss.records[keyVal]
	return s, ok
}

// Find looks a record up by any attribute value. Identifying attributes use
// the index; the rest scan.
func (ss *Students) Find(attr Attr, value string) (Student, bool) {
	if attr == ss.key {
		return ss.Get(value)
	}
	if idx, ok := ss.index[attr]; ok {
		if keyVal, ok := idx[value]; ok {
			return ss.Get(keyVal)
		}
		return Student{}, false
	}
	for _, s := range ss.records {
		if s.Get(attr) == value {
			return s, true
		}
	}
	return Student{}, false
}

// All returns the records sorted by sortKey (ByName if nil).
func (ss *Students) All(sortKey SortKey) []Student {
	if sortKey == nil {
		sortKey = ByName
	}
	students := make([]Student, 0, len(ss.records))
	for _, s := range ss.records {
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool { return sortKey(students[i]) < sortKey(students[j]) })
	return students
}

// Rekey returns a new collection keyed by attr. Records lacking attr are
// dropped with a warning, never an error.
func (ss *Students) Rekey(attr Attr) *Students {
	if attr == ss.key {
		return ss
	}
	rekeyed := NewStudents(attr, ss.logger)
	for _, s := range ss.records {
		rekeyed.Add(s) // Add warns and drops on a missing attribute
	}
	return rekeyed
}

// ByAttr returns a map from attr value to Student. Records lacking attr are
// skipped with a warning.
func (ss *Students) ByAttr(attr Attr) map[string]Student {
	byAttr := make(map[string]Student, len(ss.records))
	for _, s := range ss.records {
		v := s.Get(attr)
		if v == "" {
			ss.logger.Warn(fmt.Sprintf("student has no %s: %s", attr, s))
			continue
		}
		byAttr[v] = s
	}
	return byAttr
}

// ByTeam groups students by their repo id (the team repository they were
// provisioned into). Students without one are skipped with a warning.
func (ss *Students) ByTeam() map[string][]Student {
	teams := make(map[string][]Student)
	for _, s := range ss.All(nil) {
		if s.RepoID == "" {
			ss.logger.Warn(fmt.Sprintf("student has no %s: %s", AttrRepoID, s))
			continue
		}
		teams[s.RepoID] = append(teams[s.RepoID], s)
	}
	return teams
}

// TeamEmails maps each team (repo id) to the emails of its members.
// Members without an email are skipped with a warning.
func (ss *Students) TeamEmails() map[string][]string {
	emails := make(map[string][]string)
	for team, members := range ss.ByTeam() {
		for _, s := range members {
			if s.Email == "" {
				ss.logger.Warn(fmt.Sprintf("student has no %s: %s", AttrEmail, s))
				continue
			}
			emails[team] = append(emails[team], s.Email)
		}
	}
	return emails
}

// WriteClasslist writes a CSV classlist: one row per student with the given
// attributes. A nil attrs means DefaultAttrOrder.
func (ss *Students) WriteClasslist(w io.Writer, attrs []Attr, header bool, sortKey SortKey) error {
	if attrs == nil {
		attrs = DefaultAttrOrder
	}
	if header {
		names := make([]string, len(attrs))
		for i, attr := range attrs {
			names[i] = string(attr)
		}
		if _, err := fmt.Fprintln(w, strings.Join(names, ",")); err != nil {
			return errors.Wrap(err, "writing classlist header")
		}
	}
	for _, s := range ss.All(sortKey) {
		if _, err := fmt.Fprintln(w, s.FullStr(attrs)); err != nil {
			return errors.Wrap(err, "writing classlist row")
		}
	}
	return nil
}

// JSON renders the collection as a JSON array sorted by name.
func (ss *Students) JSON() ([]byte, error) {
	return json.MarshalIndent(ss.All(nil), "", "    ")
}

// intranetRow is one row of an Intranet classlist export.
type intranetRow struct {
	Names     string `csv:"My Students (Lname, Fname)"`
	StudentID string `csv:"StudentID"`
	Email     string `csv:"Email"`
	Lecture   string `csv:"Lecture"`
	Tutorial  string `csv:"Tutorial"`
}

// LoadIntranetClasslist reads an Intranet classlist CSV into a Students
// keyed by student number.
func LoadIntranetClasslist(r io.Reader, logger core.Logger) (*Students, error) {
	var rows []*intranetRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "reading intranet classlist")
	}

	ss := NewStudents(AttrStudentNumber, logger)
	for _, row := range rows {
		var last, first string
		names := strings.SplitN(row.Names, ",", 2)
		last = names[0]
		if len(names) > 1 {
			first = names[1]
		}
		s, err := NewStudent(Student{
			StudentNumber: row.StudentID,
			Email:         row.Email,
			First:         first,
			Last:          last,
			Lecture:       row.Lecture,
			Tutorial:      row.Tutorial,
		})
		if err != nil {
			return nil, err
		}
		ss.Add(s)
	}
	return ss, nil
}
