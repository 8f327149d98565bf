package core

// Logger is any sink for diagnostics and warnings. Batch operations over
// many records report per-record failures here and carry on; they never
// abort the whole batch.
//
// expected args: error, map[string]interface{}, fmt.Stringer ...
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// NopLogger returns a Logger that discards everything. It is the fallback
// when a caller passes a nil Logger.
func NopLogger() Logger { return nopLogger{} }
