package bridgetest

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// Call is one recorded delegate call.
type Call struct {
	Op   protocol.Op
	Args []protocol.Value

	// Measure is set for OpMeasure calls.
	Measure protocol.MeasureRequest
}

// Recorder is a Delegate that records calls in order. It is safe for
// concurrent use, so tests may inspect it while a transport goroutine
// dispatches into it.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	fail   map[protocol.Op]error
	panics map[protocol.Op]any
	aborts int

	// MeasureFunc answers measure calls. Default: the request's width and
	// height when exact, zero otherwise.
	MeasureFunc func(req protocol.MeasureRequest) (protocol.MeasureResult, error)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		fail:   make(map[protocol.Op]error),
		panics: make(map[protocol.Op]any),
	}
}

// FailOn makes every call for op return err. A nil err clears it.
func (r *Recorder) FailOn(op protocol.Op, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, op)
	} else {
		r.fail[op] = err
	}
	return r
}

// PanicOn makes every call for op panic with v. A nil v clears it.
func (r *Recorder) PanicOn(op protocol.Op, v any) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v == nil {
		delete(r.panics, op)
	} else {
		r.panics[op] = v
	}
	return r
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns the op of every recorded call, in order.
func (r *Recorder) Ops() []protocol.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]protocol.Op, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Aborts returns how many times AbortBatch was called.
func (r *Recorder) Aborts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborts
}

// Reset forgets the recorded calls and aborts. Configured failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.aborts = 0
	r.mu.Unlock()
}

// WaitFor polls until at least n calls are recorded or timeout elapses.
func (r *Recorder) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if r.Len() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// record appends the call, then applies any configured panic or failure.
// The call is recorded even when it fails.
func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	p, shouldPanic := r.panics[c.Op]
	err := r.fail[c.Op]
	r.mu.Unlock()

	if shouldPanic {
		panic(p)
	}
	return err
}

// AbortBatch implements bridge.BatchAborter. Aborts are counted, not
// recorded as calls.
func (r *Recorder) AbortBatch(ctx context.Context) error {
	r.mu.Lock()
	r.aborts++
	r.mu.Unlock()
	return nil
}

func (r *Recorder) StartBatch(ctx context.Context) error {
	return r.record(Call{Op: protocol.OpStartBatch})
}

func (r *Recorder) CreateNode(ctx context.Context, nodes []protocol.Value) error {
	return r.record(Call{Op: protocol.OpCreateNode, Args: nodes})
}

func (r *Recorder) UpdateNode(ctx context.Context, nodes []protocol.Value) error {
	return r.record(Call{Op: protocol.OpUpdateNode, Args: nodes})
}

func (r *Recorder) DeleteNode(ctx context.Context, ids []protocol.Value) error {
	return r.record(Call{Op: protocol.OpDeleteNode, Args: ids})
}

func (r *Recorder) UpdateLayout(ctx context.Context, layouts []protocol.Value) error {
	return r.record(Call{Op: protocol.OpUpdateLayout, Args: layouts})
}

func (r *Recorder) UpdateEventListener(ctx context.Context, changes []protocol.Value) error {
	return r.record(Call{Op: protocol.OpUpdateEventListener, Args: changes})
}

func (r *Recorder) UpdateRenderEventListener(ctx context.Context, changes []protocol.Value) error {
	return r.record(Call{Op: protocol.OpUpdateRenderEventListener, Args: changes})
}

func (r *Recorder) EndBatch(ctx context.Context) error {
	return r.record(Call{Op: protocol.OpEndBatch})
}

func (r *Recorder) Measure(ctx context.Context, req protocol.MeasureRequest) (protocol.MeasureResult, error) {
	if err := r.record(Call{Op: protocol.OpMeasure, Measure: req}); err != nil {
		return protocol.MeasureResult{}, err
	}
	if r.MeasureFunc != nil {
		return r.MeasureFunc(req)
	}
	var res protocol.MeasureResult
	if req.WidthMode == protocol.MeasureExactly {
		res.Width = req.Width
	}
	if req.HeightMode == protocol.MeasureExactly {
		res.Height = req.Height
	}
	return res, nil
}
