package cache

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/logging"
	"github.com/wu-wayne/tiny-service/internal/metrics"
)

// Sizer 返回值的字节估算，用于容量核算。
type Sizer[V any] func(value V) int64

// ByteSize 以切片长度作为大小。
func ByteSize(value []byte) int64 {
	return int64(len(value))
}

type options struct {
	name      string
	now       func() time.Time
	logger    logrus.FieldLogger
	recorder  metrics.Recorder
	fs        billy.Filesystem
	keyFormat func(key any) string
}

// Option 调整缓存的可选行为，内存与磁盘实现共用。
type Option func(*options)

// WithName 设置日志与指标中使用的缓存名称。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithClock 替换时钟，测试中用来推进 max age。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger 注入结构化日志；默认使用 logrus 标准 logger。
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder 注入指标上报实现。
func WithRecorder(recorder metrics.Recorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithFilesystem 指定磁盘缓存使用的文件系统，测试中可传入 memfs.New()。
// 内存缓存忽略该选项。
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithKeyFormatter 控制磁盘缓存如何把键转换为用于哈希的字符串，默认 fmt.Sprint。
func WithKeyFormatter(format func(key any) string) Option {
	return func(o *options) {
		if format != nil {
			o.keyFormat = format
		}
	}
}

func buildOptions(defaultName string, opts []Option) options {
	o := options{
		name:      defaultName,
		now:       time.Now,
		logger:    logrus.StandardLogger(),
		recorder:  metrics.Nop{},
		keyFormat: func(key any) string { return fmt.Sprint(key) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) fields(action string) logrus.Fields {
	return logging.CacheFields(o.name, action)
}

func validateBounds(limit int64, maxAge time.Duration) error {
	if limit < 1 {
		return newConfigError("SizeLimit", fmt.Sprintf("必须大于 0，得到 %d", limit))
	}
	if maxAge < time.Second {
		return newConfigError("MaxAge", fmt.Sprintf("不能小于 1s，得到 %s", maxAge))
	}
	return nil
}
