package monitoring

import (
	"bytes"
	"io"
	"log"
	"sync"
)

var (
	logMu sync.RWMutex
	logf  = log.Printf
)

// Logf writes a cross-cutting diagnostic line (storage, HTTP serving). It
// defaults to log.Printf and may be replaced by SetLogger.
func Logf(format string, v ...interface{}) {
	logMu.RLock()
	f := logf
	logMu.RUnlock()
	f(format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	logMu.Lock()
	defer logMu.Unlock()
	if f == nil {
		logf = func(string, ...interface{}) {}
		return
	}
	logf = f
}

// Writer returns an io.Writer that forwards each complete line to Logf with
// the given tag. It lets a package log stream share the process logger.
func Writer(tag string) io.Writer {
	return &lineWriter{tag: tag}
}

type lineWriter struct {
	mu  sync.Mutex
	tag string
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		Logf("%s%s", w.tag, w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
