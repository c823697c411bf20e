package filecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/flight"
	"github.com/wu-wayne/tiny-service/internal/metrics"
)

var (
	// ErrFileNotFound 表示目标文件不存在，同时匹配 fs.ErrNotExist。
	ErrFileNotFound = fmt.Errorf("file not found: %w", fs.ErrNotExist)
	// ErrTruncatedRead 表示读取字节数少于 stat 报告的长度。
	ErrTruncatedRead = errors.New("could not completely read file")
	// ErrFileTooLarge 表示文件超过单次读取允许的上限。
	ErrFileTooLarge = errors.New("file too large")
)

// MaxFileSize 是允许缓存的单个文件上限。
const MaxFileSize int64 = math.MaxInt32

type options struct {
	fs       billy.Filesystem
	executor flight.Executor
	logger   logrus.FieldLogger
	recorder metrics.Recorder
}

// Option 调整文件缓存的依赖。
type Option func(*options)

// WithFilesystem 指定读取文件的文件系统；未设置时使用宿主文件系统并把路径转为绝对路径。
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithExecutor 指定执行读取任务的 Executor，默认在调用方 goroutine 内执行。
func WithExecutor(executor flight.Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// Cache 缓存文件内容，键为文件路径。
type Cache struct {
	fs       billy.Filesystem
	absolute bool
	flight   *flight.Cache[string, []byte]
}

// New 构造最多保存 capacity 个文件的缓存。
func New(capacity int, opts ...Option) (*Cache, error) {
	o := options{executor: flight.Inline()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache{fs: o.fs}
	if c.fs == nil {
		c.fs = osfs.New("/")
		c.absolute = true
	}

	flightOpts := []flight.Option{
		flight.WithName("files"),
		flight.WithExecutor(o.executor),
	}
	if o.logger != nil {
		flightOpts = append(flightOpts, flight.WithLogger(o.logger))
	}
	if o.recorder != nil {
		flightOpts = append(flightOpts, flight.WithRecorder(o.recorder))
	}

	inner, err := flight.New[string, []byte](c.read, capacity, flightOpts...)
	if err != nil {
		return nil, err
	}
	inner.SetFailureStrategy(flight.Or(
		flight.RemoveOn[string](ErrFileNotFound),
		flight.RemoveOn[string](ErrTruncatedRead),
	))
	c.flight = inner
	return c, nil
}

// Get 返回 path 的完整内容。失败时返回底层读取错误。
func (c *Cache) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := c.flight.Get(ctx, path)
	if err != nil {
		var computeErr *flight.ComputationError
		if errors.As(err, &computeErr) {
			return nil, computeErr.Err
		}
		return nil, err
	}
	return data, nil
}

// Remove 丢弃 path 的缓存内容，下次读取会重新访问文件系统。
func (c *Cache) Remove(path string) bool {
	return c.flight.Remove(path)
}

// Contains 报告 path 当前是否有缓存条目（包括仍在读取中的条目）。
func (c *Cache) Contains(path string) bool {
	return c.flight.Contains(path)
}

func (c *Cache) Clear() {
	c.flight.Clear()
}

func (c *Cache) Len() int {
	return c.flight.Len()
}

func (c *Cache) String() string {
	return c.flight.String()
}

func (c *Cache) read(_ context.Context, path string) ([]byte, error) {
	name := path
	if c.absolute {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		name = abs
	}

	info, err := c.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrFileTooLarge, path, info.Size())
	}

	file, err := c.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	data := make([]byte, info.Size())
	n, err := io.ReadFull(file, data)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w %s (%d of %d bytes)", ErrTruncatedRead, path, n, len(data))
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
