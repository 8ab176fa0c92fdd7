package mesher

import (
	"io"
	"log"
	"sync"
)

var (
	logMu       sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the three logging streams for the mesher package.
// Pass nil for any writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger("[mesher] ", ops)
	diagLogger = newLogger("[mesher] ", diag)
	traceLogger = newLogger("[mesher] ", trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func logTo(l **log.Logger, format string, args []interface{}) {
	logMu.RLock()
	lg := *l
	logMu.RUnlock()
	if lg != nil {
		lg.Printf(format, args...)
	}
}

// opsf logs to the ops stream (rejected options, skipped geometry).
func opsf(format string, args ...interface{}) { logTo(&opsLogger, format, args) }

// diagf logs to the diag stream (mesh sizes per build).
func diagf(format string, args ...interface{}) { logTo(&diagLogger, format, args) }

// tracef logs to the trace stream (per-branch geometry).
func tracef(format string, args ...interface{}) { logTo(&traceLogger, format, args) }
