package monitoring

import "io"

// LogWriters holds the io.Writers for the ops, diag and trace streams that
// the domain packages expose through their SetLogWriters functions.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// StreamWriters routes ops to w always, diag when verbose or trace is set and
// trace only when trace is set. Disabled streams are nil.
func StreamWriters(w io.Writer, verbose, trace bool) LogWriters {
	lw := LogWriters{Ops: w}
	if verbose || trace {
		lw.Diag = w
	}
	if trace {
		lw.Trace = w
	}
	return lw
}
