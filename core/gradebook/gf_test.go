package gradebook

import (
	"strings"
	"testing"

	"github.com/trezcool/kitabu/core/roster"
	testutil "github.com/trezcool/kitabu/tests"
)

const sampleGF = "*/,\n" +
	"utorid \" ! , 9\n" +
	"X / 10\n" +
	"Y / 5\n" +
	"\n" +
	"0999617856    Doe Jane,jdoe1234,8,3\n" +
	"0999617856* late penalty applied\n" +
	"1003336320    Smith Bob,bsmith12,7.5,4\n"

func TestParseGF(t *testing.T) {
	gf, err := parseGF(strings.NewReader(sampleGF), nil)
	if err != nil {
		t.Fatalf("parseGF() failed: %v", err)
	}

	if want := []string{"X", "Y"}; strings.Join(gf.assts, ",") != strings.Join(want, ",") {
		t.Errorf("parseGF() assts = %v, want %v", gf.assts, want)
	}
	if gf.outofs["X"] != 10 || gf.outofs["Y"] != 5 {
		t.Errorf("parseGF() outofs = %v", gf.outofs)
	}
	if len(gf.records) != 2 {
		t.Fatalf("parseGF() records = %d, want 2", len(gf.records))
	}

	jane := gf.records["0999617856"]
	wantStudent := roster.Student{StudentNumber: "0999617856", Last: "Doe", First: "Jane", LoginID: "jdoe1234"}
	if jane.Student != wantStudent {
		t.Errorf("parseGF() student = %+v, want %+v", jane.Student, wantStudent)
	}
	if x, _ := jane.Grades.Get("X"); x != 8 {
		t.Errorf("parseGF() X = %v, want 8", x)
	}
	if y, _ := jane.Grades.Get("Y"); y != 3 {
		t.Errorf("parseGF() Y = %v, want 3", y)
	}
	if bob := gf.records["1003336320"]; bob.Student.LoginID != "bsmith12" {
		t.Errorf("parseGF() bob = %+v", bob.Student)
	}

	if got := gf.comments["0999617856"]; got != "late penalty applied" {
		t.Errorf("parseGF() comment = %q", got)
	}
}

func TestParseGFHeaderShapes(t *testing.T) {
	text := "*/,\n" +
		"A1 / 25\n" +
		"all = A1 + exam\n" +
		"\n"
	gf, err := parseGF(strings.NewReader(text), nil)
	if err != nil {
		t.Fatalf("parseGF() failed: %v", err)
	}
	if gf.outofs["A1"] != 25 {
		t.Errorf("parseGF() A1 out-of = %v, want 25", gf.outofs["A1"])
	}
	// a calculated assignment has no max in its header line
	if gf.outofs["all"] != DefaultFormulaOutOf {
		t.Errorf("parseGF() formula out-of = %v, want %v", gf.outofs["all"], DefaultFormulaOutOf)
	}
}

func TestParseGFStudentLines(t *testing.T) {
	header := "X / 10\nY / 5\n\n"
	tests := []struct {
		name      string
		line      string
		wantNum   string
		wantLogin string
		wantX     float64
		wantY     float64
	}{
		{name: "login id and both grades", line: "0999617856    Doe Jane,jdoe1234,8,3", wantNum: "0999617856", wantLogin: "jdoe1234", wantX: 8, wantY: 3},
		{name: "no login id", line: "0999617856    Doe Jane,8,3", wantNum: "0999617856", wantX: 8, wantY: 3},
		{name: "zero fill of trailing grades", line: "0999617856    Doe Jane,jdoe1234,8", wantNum: "0999617856", wantLogin: "jdoe1234", wantX: 8, wantY: 0},
		{name: "bare roster line", line: "0999617856    Doe Jane", wantNum: "0999617856"},
		{name: "dropped status flag", line: "0999617856 d  Doe Jane,jdoe1234,8,3", wantNum: "0999617856", wantLogin: "jdoe1234", wantX: 8, wantY: 3},
		{name: "multi-part first name", line: "0999617856    Doe Jane Q,jdoe1234,8,3", wantNum: "0999617856", wantLogin: "jdoe1234", wantX: 8, wantY: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gf, err := parseGF(strings.NewReader(header+tt.line+"\n"), nil)
			if err != nil {
				t.Fatalf("parseGF() failed: %v", err)
			}
			rec, ok := gf.records[tt.wantNum]
			if !ok {
				t.Fatalf("parseGF() has no record for %s", tt.wantNum)
			}
			if rec.Student.LoginID != tt.wantLogin {
				t.Errorf("login id = %q, want %q", rec.Student.LoginID, tt.wantLogin)
			}
			if x, _ := rec.Grades.Get("X"); x != tt.wantX {
				t.Errorf("X = %v, want %v", x, tt.wantX)
			}
			if y, _ := rec.Grades.Get("Y"); y != tt.wantY {
				t.Errorf("Y = %v, want %v", y, tt.wantY)
			}
		})
	}
}

func TestParseGFUnrecognizedLine(t *testing.T) {
	logger := testutil.NewLogger()
	text := "X / 10\n\nthis is not a student line\n"
	gf, err := parseGF(strings.NewReader(text), logger)
	if err != nil {
		t.Fatalf("parseGF() failed: %v", err)
	}
	if len(gf.records) != 0 {
		t.Errorf("parseGF() records = %d, want 0", len(gf.records))
	}
	if len(logger.Warnings) != 1 {
		t.Errorf("parseGF() warnings = %v, want 1", logger.Warnings)
	}
}

func TestParseGFNoHeaderTerminator(t *testing.T) {
	if _, err := parseGF(strings.NewReader("X / 10\n"), nil); err == nil {
		t.Error("parseGF() accepted a gf file without a blank line")
	}
}

func TestGFRoundTrip(t *testing.T) {
	gb, err := LoadGF(strings.NewReader(sampleGF), roster.AttrStudentNumber, nil)
	if err != nil {
		t.Fatalf("LoadGF() failed: %v", err)
	}

	var out strings.Builder
	if err := gb.WriteGF(&out, []string{"X", "Y"}, true, nil); err != nil {
		t.Fatalf("WriteGF() failed: %v", err)
	}
	if out.String() != sampleGF {
		t.Errorf("round trip mismatch:\n%s", testutil.Diff(sampleGF, out.String()))
	}
}

func TestLoadGFEndToEnd(t *testing.T) {
	text := "X / 10\nY / 5\n\n0999617856    Doe  Jane,jdoe1234,8,3\n"
	gb, err := LoadGF(strings.NewReader(text), roster.AttrStudentNumber, nil)
	if err != nil {
		t.Fatalf("LoadGF() failed: %v", err)
	}
	if gb.Len() != 1 {
		t.Fatalf("LoadGF() len = %d, want 1", gb.Len())
	}
	rec, _ := gb.Record("0999617856")
	want := roster.Student{StudentNumber: "0999617856", Last: "Doe", First: "Jane", LoginID: "jdoe1234"}
	if rec.Student != want {
		t.Errorf("LoadGF() student = %+v, want %+v", rec.Student, want)
	}

	var out strings.Builder
	if err := gb.WriteGF(&out, []string{"X", "Y"}, true, nil); err != nil {
		t.Fatalf("WriteGF() failed: %v", err)
	}
	if !strings.Contains(out.String(), ",8,3\n") {
		t.Errorf("WriteGF() does not reproduce the original grade fields:\n%s", out.String())
	}
}

func TestWriteGFUnknownAssignment(t *testing.T) {
	gb, err := LoadGF(strings.NewReader(sampleGF), roster.AttrStudentNumber, nil)
	if err != nil {
		t.Fatalf("LoadGF() failed: %v", err)
	}
	var out strings.Builder
	if err := gb.WriteGF(&out, []string{"X", "Z"}, true, nil); err == nil {
		t.Error("WriteGF() accepted an unknown assignment in the order")
	}
}

func TestGFAsstName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Exam (12345)", "Exam__12345_"},
		{"A1", "A1"},
		{"term test", "term_test"},
	}
	for _, tt := range tests {
		if got := gfAsstName(tt.in); got != tt.want {
			t.Errorf("gfAsstName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteEmptyGF(t *testing.T) {
	jane, err := roster.NewStudent(roster.Student{StudentNumber: "0999617856", Last: "Doe", First: "Jane", LoginID: "jdoe1234"})
	if err != nil {
		t.Fatalf("NewStudent() failed: %v", err)
	}
	ss := roster.NewStudents(roster.AttrStudentNumber, nil, jane)

	var out strings.Builder
	if err := WriteEmptyGF(&out, ss, map[string]float64{"X": 10}, true, nil); err != nil {
		t.Fatalf("WriteEmptyGF() failed: %v", err)
	}
	want := "*/,\n" +
		"utorid \" ! , 9\n" +
		"X / 10\n" +
		"\n" +
		"0999617856    Doe Jane,jdoe1234\n"
	if out.String() != want {
		t.Errorf("WriteEmptyGF() mismatch:\n%s", testutil.Diff(want, out.String()))
	}
}
