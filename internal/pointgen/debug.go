package pointgen

import (
	"io"
	"log"
	"sync"
)

var (
	logMu      sync.RWMutex
	opsLogger  *log.Logger
	diagLogger *log.Logger
)

// SetLogWriters configures the ops and diag streams for the pointgen
// package. Pass nil for either writer to disable that stream.
func SetLogWriters(ops, diag io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger("[pointgen] ", ops)
	diagLogger = newLogger("[pointgen] ", diag)
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

// opsf logs to the ops stream (rejected requests, sampling shortfalls).
func opsf(format string, args ...interface{}) { logTo(&opsLogger, format, args) }

// diagf logs to the diag stream (cloud sizes and bounds).
func diagf(format string, args ...interface{}) { logTo(&diagLogger, format, args) }
