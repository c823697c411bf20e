package flight

import (
	"context"
)

// Handle is a pending or completed computation shared by every caller of the
// same key.
type Handle[V any] struct {
	done   chan struct{}
	value  V
	err    error
	ctx    context.Context
	cancel context.CancelFunc
}

func newHandle[V any]() *Handle[V] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle[V]{
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Done is closed once the computation has finished.
func (h *Handle[V]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the computation finishes or ctx is done. A ctx error is
// returned as-is; computation failures are returned as *ComputationError.
func (h *Handle[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-h.done:
		return h.value, h.err
	default:
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Result blocks until the computation finishes.
func (h *Handle[V]) Result() (V, error) {
	<-h.done
	return h.value, h.err
}

// Cancel cancels the context handed to the computation. The computation
// decides whether to honour it; waiters still receive whatever it returns.
func (h *Handle[V]) Cancel() {
	h.cancel()
}

func (h *Handle[V]) complete(value V, err error) {
	h.value = value
	h.err = err
	h.cancel()
	close(h.done)
}
