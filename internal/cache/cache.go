package cache

import (
	"fmt"
	"time"
)

// Cache 是内存与磁盘实现共享的容量受限缓存契约。
//
// Put 在值本身不小于 limit 或无法腾出空间时返回 false（不是错误）；
// 只有磁盘 I/O 失败才会返回 error。
type Cache[K comparable, V any] interface {
	// Get 返回键对应的值；不存在或已过期时 ok 为 false。
	Get(key K) (value V, ok bool, err error)
	// Put 写入键值，返回是否被接受。
	Put(key K, value V) (bool, error)
	// Remove 删除键并返回旧值。
	Remove(key K) (value V, ok bool, err error)
	// Clear 删除所有条目并重置容量统计。
	Clear() error
	// Limit 返回配置的字节上限。
	Limit() int64
	// Capacity 返回当前已占用的字节数。
	Capacity() int64
	// Len 返回当前条目数。
	Len() int
	// String 返回用于日志的摘要。
	String() string
}

// summary 输出 "Cache(<条目数>): <limit>(<利用率>%) Age:<秒>s"，仅供日志/诊断。
func summary(entries int, limit, used int64, maxAge time.Duration) string {
	pct := 0.0
	if limit > 0 {
		pct = float64(used) / float64(limit) * 100
	}
	return fmt.Sprintf("Cache(%d): %d(%.2f%%) Age:%ds", entries, limit, pct, int64(maxAge/time.Second))
}
