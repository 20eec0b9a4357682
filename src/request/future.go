package request

import (
	"context"
	"sync"
)

// Future is the one-shot result of a request. It settles at most once,
// and may never settle: aborted requests and redirect directives leave it
// pending.
type Future struct {
	done chan struct{}
	once sync.Once
	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(resp *Response) {
	f.once.Do(func() {
		f.resp = resp
		close(f.done)
	})
}

func (f *Future) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has resolved or rejected.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has resolved or rejected.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done. A rejection is
// returned as a *RequestError.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
