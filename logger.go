package kvdb

import "log"

// Logger is the narrow interface the engine logs through for the two cases
// that have no caller to return an error to: a panic recovered in the
// background flush worker, and an engine dropped without an explicit Close.
//
// Everywhere else the core returns structured errors instead of logging,
// matching the storage layers this package was grounded on. Accept an
// interface, default to a concrete stdlib-backed implementation - the same
// shape the filesystem abstraction in this corpus uses.
type Logger interface {
	Printf(format string, args ...any)
}

// stdLogger adapts the standard library's default logger to [Logger].
type stdLogger struct{}

func (stdLogger) Printf(format string, args ...any) {
	log.Printf(format, args...)
}

// defaultLogger is used whenever [Options] does not supply one.
func defaultLogger() Logger {
	return stdLogger{}
}
