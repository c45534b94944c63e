package corpus

import "github.com/charmbracelet/log"

// StatusSink receives progress and warnings from a corpus build. Calls are
// serialised by the caller.
type StatusSink interface {
	Progress(done, total int, documentID string)
	Warn(message string)
}

// LogSink reports through the package logger.
type LogSink struct{}

func (LogSink) Progress(done, total int, documentID string) {
	log.Debugf("Indexed %s (%d/%d)", documentID, done, total)
}

func (LogSink) Warn(message string) {
	log.Warn(message)
}
