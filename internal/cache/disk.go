package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/wu-wayne/tiny-service/internal/metrics"
)

// Default values used by the host binary when the config leaves them unset.
const (
	DefaultDiskLimit  int64 = 64 * 1024 * 1024
	DefaultDiskMaxAge       = 24 * time.Hour
)

// Disk 以文件保存值，文件名由键的稳定哈希决定。淘汰算法与 Memory 相同，
// 条目大小以写入后的文件长度为准。
type Disk[K comparable, V any] struct {
	mu     sync.Mutex
	ledger *ledger[K, string]
	root   string
	fs     billy.Filesystem
	limit  int64
	maxAge time.Duration
	sizer  Sizer[V]
	codec  Codec[V]
	opts   options
}

var _ Cache[string, []byte] = (*Disk[string, []byte])(nil)

// NewDisk 以 root 为缓存目录构建磁盘缓存；root 必须已存在且是目录。
func NewDisk[K comparable, V any](root string, limit int64, maxAge time.Duration, sizer Sizer[V], codec Codec[V], opts ...Option) (*Disk[K, V], error) {
	if err := validateBounds(limit, maxAge); err != nil {
		return nil, err
	}
	if sizer == nil {
		return nil, newConfigError("Sizer", "不能为空")
	}
	if codec == nil {
		return nil, newConfigError("Codec", "不能为空")
	}
	if root == "" {
		return nil, newConfigError("Root", "不能为空")
	}

	o := buildOptions("disk", opts)
	if o.fs == nil {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, newConfigError("Root", fmt.Sprintf("无法解析路径 %s: %v", root, err))
		}
		root = abs
		o.fs = osfs.New("/")
	}

	info, err := o.fs.Stat(root)
	if err != nil {
		return nil, newConfigError("Root", fmt.Sprintf("非法缓存目录 %s: %v", root, err))
	}
	if !info.IsDir() {
		return nil, newConfigError("Root", fmt.Sprintf("非法缓存目录 %s: 不是目录", root))
	}

	return &Disk[K, V]{
		ledger: newLedger[K, string](),
		root:   root,
		fs:     o.fs,
		limit:  limit,
		maxAge: maxAge,
		sizer:  sizer,
		codec:  codec,
		opts:   o,
	}, nil
}

// Root 返回缓存目录。
func (c *Disk[K, V]) Root() string {
	return c.root
}

// Get 在锁外读取文件；读取失败时清理条目与文件并返回 *StorageError。
func (c *Disk[K, V]) Get(key K) (V, bool, error) {
	var zero V

	c.mu.Lock()
	rec, ok := c.ledger.lookup(key)
	if !ok {
		c.mu.Unlock()
		c.opts.recorder.Miss(c.opts.name)
		return zero, false, nil
	}
	if rec.expired(c.opts.now(), c.maxAge) {
		c.ledger.delete(key)
		c.removeFile(rec.payload)
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		c.mu.Unlock()
		c.opts.recorder.Evict(c.opts.name, metrics.ReasonExpired)
		c.opts.recorder.Miss(c.opts.name)
		return zero, false, nil
	}
	path := rec.payload
	c.mu.Unlock()

	value, loadErr := c.load(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.ledger.lookup(key)
	same := ok && current == rec
	if loadErr != nil {
		// 条目已在读取期间被 Remove/Put 摘除，文件缺失属于正常竞争。
		if !same {
			c.opts.recorder.Miss(c.opts.name)
			return zero, false, nil
		}
		c.ledger.delete(key)
		c.removeFile(path)
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		c.opts.recorder.Evict(c.opts.name, metrics.ReasonStorage)
		c.opts.logger.WithFields(c.opts.fields("load")).
			WithField("key", c.opts.keyFormat(key)).
			WithField("path", path).
			Warn(loadErr.Error())
		return zero, false, &StorageError{Op: "get", Key: c.opts.keyFormat(key), Path: path, Err: loadErr}
	}
	if same {
		rec.hit(c.opts.now())
	}
	c.opts.recorder.Hit(c.opts.name)
	return value, true, nil
}

// Put 写入失败时返回 *StorageError，容量不足时返回 false。
// 编码与临时文件写入在锁外完成，锁内只做 rename 与账本登记。
func (c *Disk[K, V]) Put(key K, value V) (bool, error) {
	size := c.sizer(value)
	if size < 0 || size >= c.limit {
		c.opts.recorder.Reject(c.opts.name)
		return false, nil
	}

	name := c.opts.keyFormat(key)
	path := c.fs.Join(c.root, FilenameFor(name))
	tempName, err := c.writeTemp(value)
	if err != nil {
		return false, &StorageError{Op: "put", Key: name, Path: path, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.ledger.delete(key); ok {
		c.removeFile(old.payload)
	}
	if !c.ledger.makeRoom(size, c.limit, c.evicted) {
		c.fs.Remove(tempName)
		c.opts.recorder.Reject(c.opts.name)
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		return false, nil
	}

	written, err := c.commit(tempName, path)
	if err != nil {
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		return false, &StorageError{Op: "put", Key: name, Path: path, Err: err}
	}

	// 以文件长度为准再校验一次：不小于 limit 直接拒绝，否则继续腾挪空间。
	if written >= c.limit || !c.ledger.makeRoom(written, c.limit, c.evicted) {
		c.removeFile(path)
		c.opts.recorder.Reject(c.opts.name)
		c.opts.recorder.Usage(c.opts.name, c.ledger.used)
		return false, nil
	}

	c.ledger.insert(key, path, written, c.opts.now())
	c.opts.recorder.Usage(c.opts.name, c.ledger.used)
	return true, nil
}

// Remove 读取旧值后删除条目与文件；读取失败时条目仍被删除。
func (c *Disk[K, V]) Remove(key K) (V, bool, error) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.ledger.delete(key)
	if !ok {
		return zero, false, nil
	}
	defer c.opts.recorder.Usage(c.opts.name, c.ledger.used)
	defer c.removeFile(rec.payload)

	value, err := c.load(rec.payload)
	if err != nil {
		return zero, false, &StorageError{Op: "remove", Key: c.opts.keyFormat(key), Path: rec.payload, Err: err}
	}
	return value, true, nil
}

// Clear 删除所有已登记的文件并重置账本，删除失败会合并返回。
func (c *Disk[K, V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, rec := range c.ledger.reset() {
		if err := c.removeFile(rec.payload); err != nil {
			errs = append(errs, err)
		}
	}
	c.opts.recorder.Usage(c.opts.name, 0)
	return errors.Join(errs...)
}

func (c *Disk[K, V]) Limit() int64 {
	return c.limit
}

func (c *Disk[K, V]) Capacity() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.used
}

func (c *Disk[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.len()
}

// Policy 返回键当前的 Policy 快照。
func (c *Disk[K, V]) Policy(key K) (Policy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.ledger.lookup(key)
	if !ok {
		return Policy{}, false
	}
	return rec.policy, true
}

func (c *Disk[K, V]) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summary(c.ledger.len(), c.limit, c.ledger.used, c.maxAge)
}

func (c *Disk[K, V]) evicted(key K, rec *record[string]) {
	c.removeFile(rec.payload)
	c.opts.recorder.Evict(c.opts.name, metrics.ReasonCapacity)
	c.opts.logger.WithFields(c.opts.fields("evict")).
		WithField("key", c.opts.keyFormat(key)).
		WithField("path", rec.payload).
		WithField("hits", rec.policy.Hits).
		Debug("cache file evicted")
}

// writeTemp 把编码结果写入 root 下的临时文件并返回其名称，失败时清理临时文件。
func (c *Disk[K, V]) writeTemp(value V) (string, error) {
	tempFile, err := c.fs.TempFile(c.root, ".cache-")
	if err != nil {
		return "", err
	}
	tempName := tempFile.Name()

	buf := bufio.NewWriter(tempFile)
	err = c.codec.Encode(buf, value)
	if err == nil {
		err = buf.Flush()
	}
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		c.fs.Remove(tempName)
		return "", err
	}
	return tempName, nil
}

// commit 仅在目标路径不存在时把临时文件 rename 过去；已存在的文件被沿用。
// 返回目标文件长度。调用方持有锁。
func (c *Disk[K, V]) commit(tempName, path string) (int64, error) {
	info, err := c.fs.Stat(path)
	if err == nil {
		c.fs.Remove(tempName)
		return info.Size(), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		c.fs.Remove(tempName)
		return 0, err
	}

	if err := c.fs.Rename(tempName, path); err != nil {
		c.fs.Remove(tempName)
		return 0, err
	}

	info, err = c.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (c *Disk[K, V]) load(path string) (V, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		var zero V
		return zero, err
	}
	defer f.Close()
	return c.codec.Decode(bufio.NewReader(f))
}

// removeFile 尽力删除文件，不存在视为成功。
func (c *Disk[K, V]) removeFile(path string) error {
	err := c.fs.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	c.opts.logger.WithFields(c.opts.fields("remove_file")).
		WithField("path", path).
		Warn(err.Error())
	return err
}
