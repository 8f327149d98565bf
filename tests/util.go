package testutil

import (
	"fmt"
	"sync"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/kitabu/core"
)

// Logger records messages per level so tests can assert on the warnings
// the core emits instead of raising.
type Logger struct {
	mu       sync.Mutex
	Debugs   []string
	Infos    []string
	Warnings []string
	Errors   []string
	Fatals   []string
	disabled bool
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return &Logger{} }

func (l *Logger) record(dst *[]string, msg string, args []interface{}) {
	if l.disabled {
		return
	}
	for _, arg := range args {
		msg += fmt.Sprintf(" %+v", arg)
	}
	l.mu.Lock()
	*dst = append(*dst, msg)
	l.mu.Unlock()
}

func (l *Logger) Enable(enabled bool)                  { l.disabled = !enabled }
func (l *Logger) Debug(msg string, args ...interface{}) { l.record(&l.Debugs, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record(&l.Infos, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record(&l.Warnings, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.record(&l.Errors, msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.record(&l.Fatals, msg, args) }

// Diff renders a unified diff of two texts for readable test failures.
func Diff(want, got string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return fmt.Sprintf("want:\n%s\ngot:\n%s", want, got)
	}
	return diff
}
