package skeleton

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters_Streams(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)
	defer SetLogWriters(nil, nil, nil)

	opsf("ops %d", 1)
	diagf("diag %d", 2)
	tracef("trace %d", 3)

	for name, tc := range map[string]struct {
		buf  *bytes.Buffer
		want string
	}{
		"ops":   {&ops, "ops 1"},
		"diag":  {&diag, "diag 2"},
		"trace": {&trace, "trace 3"},
	} {
		out := tc.buf.String()
		if !strings.Contains(out, tc.want) || !strings.Contains(out, "[skeleton]") {
			t.Errorf("%s stream: got %q", name, out)
		}
	}
}

func TestSetLogWriters_Disabled(t *testing.T) {
	SetLogWriters(nil, nil, nil)

	if opsLogger != nil || diagLogger != nil || traceLogger != nil {
		t.Fatal("loggers should be nil after SetLogWriters(nil, nil, nil)")
	}
	opsf("discarded %d", 1)
}
