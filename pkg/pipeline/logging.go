package pipeline

import (
	"log"

	"github.com/google/uuid"
)

// runLogger prefixes every log line with a run ID, so interleaved worker
// output from one Run() call can be told apart from another's.
type runLogger struct {
	runID string
}

func newRunLogger() *runLogger {
	return &runLogger{runID: uuid.NewString()}
}

func (l *runLogger) Printf(tag, format string, args ...any) {
	log.Printf("[%s] run=%s "+format, append([]any{tag, l.runID}, args...)...)
}
