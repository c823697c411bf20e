package flight

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/logging"
	"github.com/wu-wayne/tiny-service/internal/metrics"
)

// ErrPanic is wrapped by the *ComputationError produced when a Func panics.
var ErrPanic = errors.New("computation panicked")

// ErrInvalidCapacity is returned by New for a capacity below 1.
var ErrInvalidCapacity = errors.New("flight: capacity must be at least 1")

// Func computes the value for key. ctx is cancelled by Handle.Cancel and once
// the computation has completed.
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ComputationError wraps the error returned by a Func. Every waiter of the same
// computation receives the same *ComputationError.
type ComputationError struct {
	Key any
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("compute %v: %v", e.Key, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

type options struct {
	name     string
	executor Executor
	logger   logrus.FieldLogger
	recorder metrics.Recorder
}

// Option configures a Cache.
type Option func(*options)

// WithName sets the name used in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithExecutor selects where computations run. Defaults to Inline.
func WithExecutor(executor Executor) Option {
	return func(o *options) {
		if executor != nil {
			o.executor = executor
		}
	}
}

// WithLogger injects the structured logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder injects the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// Cache memoizes Func results per key with at most one computation in flight
// per key.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	slots    *simplelru.LRU[K, *Handle[V]]
	capacity int
	compute  Func[K, V]
	strategy FailureStrategy[K]
	opts     options
}

// New creates a Cache holding at most capacity entries. Failures are retained
// until SetFailureStrategy says otherwise.
func New[K comparable, V any](compute Func[K, V], capacity int, opts ...Option) (*Cache[K, V], error) {
	if compute == nil {
		return nil, errors.New("flight: compute func is required")
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidCapacity, capacity)
	}

	slots, err := simplelru.NewLRU[K, *Handle[V]](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	o := options{
		name:     "flight",
		executor: Inline(),
		logger:   logrus.StandardLogger(),
		recorder: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[K, V]{
		slots:    slots,
		capacity: capacity,
		compute:  compute,
		strategy: AlwaysRetain[K](),
		opts:     o,
	}, nil
}

// SetFailureStrategy replaces the failure-retention strategy.
func (c *Cache[K, V]) SetFailureStrategy(strategy FailureStrategy[K]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strategy == nil {
		strategy = AlwaysRetain[K]()
	}
	c.strategy = strategy
}

// Get returns the value for key, computing it at most once across concurrent
// callers. It waits for an in-flight computation or until ctx is done; ctx only
// bounds the wait, not the shared computation.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	return c.Lookup(key).Wait(ctx)
}

// Lookup returns the live handle for key, scheduling a computation when none
// exists. It does not wait.
func (c *Cache[K, V]) Lookup(key K) *Handle[V] {
	c.mu.Lock()
	if h, ok := c.slots.Get(key); ok {
		c.mu.Unlock()
		c.opts.recorder.Hit(c.opts.name)
		return h
	}

	h := newHandle[V]()
	if c.slots.Len() >= c.capacity {
		if oldKey, _, ok := c.slots.RemoveOldest(); ok {
			c.opts.recorder.Evict(c.opts.name, metrics.ReasonCapacity)
			c.opts.logger.WithFields(logging.CacheFields(c.opts.name, "evict")).
				WithField("key", fmt.Sprint(oldKey)).
				Debug("flight entry evicted")
		}
	}
	c.slots.Add(key, h)
	c.mu.Unlock()

	c.opts.recorder.Miss(c.opts.name)
	c.opts.executor.Submit(func() { c.run(h, key) })
	return h
}

// Remove detaches key from the cache. A running computation is not interrupted.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.Remove(key)
}

// Clear detaches every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots.Purge()
}

// Contains reports whether key currently has an entry, without touching recency.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.Contains(key)
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.Len()
}

func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

func (c *Cache[K, V]) String() string {
	return fmt.Sprintf("Cache(%d/%d)", c.Len(), c.capacity)
}

func (c *Cache[K, V]) failureStrategy() FailureStrategy[K] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

// removeHandle drops key only while it still maps to h, so a newer
// computation for the same key survives.
func (c *Cache[K, V]) removeHandle(key K, h *Handle[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.slots.Peek(key); ok && current == h {
		c.slots.Remove(key)
		c.opts.recorder.Evict(c.opts.name, metrics.ReasonFailure)
	}
}

func (c *Cache[K, V]) run(h *Handle[V], key K) {
	var (
		value V
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		if err != nil {
			var zero V
			c.opts.recorder.Computed(c.opts.name, metrics.ResultFailure)
			c.opts.logger.WithFields(logging.CacheFields(c.opts.name, "compute")).
				WithField("key", fmt.Sprint(key)).
				Debug(err.Error())
			// 先按策略摘除，再唤醒等待者，保证之后的 Get 看到的是新计算。
			if c.failureStrategy().ShouldEvict(key, err) {
				c.removeHandle(key, h)
			}
			h.complete(zero, &ComputationError{Key: key, Err: err})
			return
		}
		c.opts.recorder.Computed(c.opts.name, metrics.ResultSuccess)
		h.complete(value, nil)
	}()
	value, err = c.compute(h.ctx, key)
}
