package cache

import (
	"sync"
	"time"

	"github.com/wu-wayne/tiny-service/internal/metrics"
)

// Default values used by the host binary when the config leaves them unset.
const (
	DefaultMemoryLimit  int64 = 16 * 1024 * 1024
	DefaultMemoryMaxAge       = 30 * time.Second
)

// Memory 是进程内的容量受限缓存，强引用保存值。
// 账本与存储在同一把锁下修改，淘汰扫描也在该锁内完成。
type Memory[K comparable, V any] struct {
	mu     sync.Mutex
	ledger *ledger[K, V]
	limit  int64
	maxAge time.Duration
	sizer  Sizer[V]
	opts   options
}

var _ Cache[string, []byte] = (*Memory[string, []byte])(nil)

// NewMemory 构造内存缓存；limit 为字节上限，maxAge 至少 1s。
func NewMemory[K comparable, V any](limit int64, maxAge time.Duration, sizer Sizer[V], opts ...Option) (*Memory[K, V], error) {
	if err := validateBounds(limit, maxAge); err != nil {
		return nil, err
	}
	if sizer == nil {
		return nil, newConfigError("Sizer", "不能为空")
	}
	return &Memory[K, V]{
		ledger: newLedger[K, V](),
		limit:  limit,
		maxAge: maxAge,
		sizer:  sizer,
		opts:   buildOptions("memory", opts),
	}, nil
}

// Get 命中时计数并刷新访问时间；超过 maxAge 的条目被移除并视为未命中。
func (c *Memory[K, V]) Get(key K) (V, bool, error) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.ledger.lookup(key)
	if !ok {
		c.opts.recorder.Miss(c.opts.name)
		return zero, false, nil
	}

	now := c.opts.now()
	if rec.expired(now, c.maxAge) {
		c.ledger.delete(key)
		c.opts.recorder.Evict(c.opts.name, metrics.ReasonExpired)
		c.opts.recorder.Miss(c.opts.name)
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		return zero, false, nil
	}

	rec.hit(now)
	c.opts.recorder.Hit(c.opts.name)
	return rec.payload, true, nil
}

// Put 先释放同键旧条目，再按命中数淘汰直至放得下；放不下返回 false。
func (c *Memory[K, V]) Put(key K, value V) (bool, error) {
	size := c.sizer(value)
	if size < 0 || size >= c.limit {
		c.opts.recorder.Reject(c.opts.name)
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.delete(key)
	if !c.ledger.makeRoom(size, c.limit, c.evicted) {
		c.opts.recorder.Reject(c.opts.name)
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		return false, nil
	}

	c.ledger.insert(key, value, size, c.opts.now())
	c.opts.recorder.Usage(c.opts.name, c.ledger.used)
	return true, nil
}

// Remove 同时删除存储与 Policy，并扣减容量。
func (c *Memory[K, V]) Remove(key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.ledger.delete(key)
	if !ok {
		var zero V
		return zero, false, nil
	}
	c.opts.recorder.Usage(c.opts.name, c.ledger.used)
	return rec.payload, true, nil
}

func (c *Memory[K, V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.reset()
	c.opts.recorder.Usage(c.opts.name, 0)
	return nil
}

func (c *Memory[K, V]) Limit() int64 {
	return c.limit
}

func (c *Memory[K, V]) Capacity() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.used
}

func (c *Memory[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.len()
}

// Policy 返回键当前的 Policy 快照。
func (c *Memory[K, V]) Policy(key K) (Policy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.ledger.lookup(key)
	if !ok {
		return Policy{}, false
	}
	return rec.policy, true
}

func (c *Memory[K, V]) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary(c.ledger.len(), c.limit, c.ledger.used, c.maxAge)
}

func (c *Memory[K, V]) evicted(key K, rec *record[V]) {
	c.opts.recorder.Evict(c.opts.name, metrics.ReasonCapacity)
	c.opts.logger.WithFields(c.opts.fields("evict")).
		WithField("key", c.opts.keyFormat(key)).
		WithField("size", rec.policy.Size).
		WithField("hits", rec.policy.Hits).
		Debug("cache entry evicted")
}
