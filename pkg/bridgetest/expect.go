package bridgetest

import (
	"sync"
	"testing"

	"github.com/vango-dev/renderbridge/pkg/bridge"
	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// ErrorLog collects errors reported by a channel.
type ErrorLog struct {
	mu   sync.Mutex
	errs []*bridge.Error
}

// HandleError implements bridge.ErrorHandler.
func (l *ErrorLog) HandleError(err *bridge.Error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

// Errors returns a copy of the collected errors.
func (l *ErrorLog) Errors() []*bridge.Error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*bridge.Error, len(l.errs))
	copy(out, l.errs)
	return out
}

// Kinds returns the kind of every collected error, in order.
func (l *ErrorLog) Kinds() []bridge.ErrorKind {
	errs := l.Errors()
	kinds := make([]bridge.ErrorKind, len(errs))
	for i, e := range errs {
		kinds[i] = e.Kind
	}
	return kinds
}

// ExpectOps asserts that the recorder saw exactly ops, in order.
func ExpectOps(t testing.TB, r *Recorder, ops ...protocol.Op) {
	t.Helper()
	got := r.Ops()
	if len(got) != len(ops) {
		t.Fatalf("recorded ops = %v, want %v", got, ops)
	}
	for i := range ops {
		if got[i] != ops[i] {
			t.Fatalf("recorded ops = %v, want %v", got, ops)
		}
	}
}

// ExpectKinds asserts that the log holds exactly the given error kinds.
func ExpectKinds(t testing.TB, l *ErrorLog, kinds ...bridge.ErrorKind) {
	t.Helper()
	got := l.Kinds()
	if len(got) != len(kinds) {
		t.Fatalf("reported kinds = %v, want %v", got, kinds)
	}
	for i := range kinds {
		if got[i] != kinds[i] {
			t.Fatalf("reported kinds = %v, want %v", got, kinds)
		}
	}
}

// ExpectNoErrors asserts that nothing was reported.
func ExpectNoErrors(t testing.TB, l *ErrorLog) {
	t.Helper()
	if errs := l.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected reported errors: %v", errs)
	}
}
