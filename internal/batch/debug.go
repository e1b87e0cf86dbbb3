package batch

import (
	"io"
	"log"
)

var opsLogger *log.Logger

// SetLogWriter configures the batch package's ops stream, which reports
// cameras dropped for an unreadable mask. Source errors are returned to
// the caller, not logged here. Pass nil to disable.
func SetLogWriter(w io.Writer) {
	if w == nil {
		opsLogger = nil
		return
	}
	opsLogger = log.New(w, "[batch] ", log.LstdFlags|log.Lmicroseconds)
}

func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}
