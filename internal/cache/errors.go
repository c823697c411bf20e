package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 表示构造参数非法（容量、最大存活时间或缓存目录）。
var ErrInvalidConfig = errors.New("invalid cache configuration")

// ErrStorage 表示磁盘读写失败，对应条目已被清理。
var ErrStorage = errors.New("cache storage failure")

// ConfigError 提供字段与原因，构造阶段直接返回给调用方。
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache config %s: %s", e.Field, e.Reason)
}

// Is 使 errors.Is(err, ErrInvalidConfig) 成立。
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func newConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// StorageError 记录失败的操作、键与文件路径，并保留底层 I/O 错误。
type StorageError struct {
	Op   string
	Key  string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s '%s' (%s): %v", e.Op, e.Key, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrStorage) 成立，同时不影响对底层错误的匹配。
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
