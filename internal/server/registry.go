package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/cache"
	"github.com/wu-wayne/tiny-service/internal/config"
	"github.com/wu-wayne/tiny-service/internal/filecache"
	"github.com/wu-wayne/tiny-service/internal/flight"
	"github.com/wu-wayne/tiny-service/internal/metrics"
)

// Cache names used in logs, metrics and the /-/cache payload.
const (
	MemoryCacheName = "memory"
	DiskCacheName   = "disk"
	FileCacheName   = "files"
)

// CacheRegistry 汇总进程内的全部缓存实例，供 HTTP 路由共享。
type CacheRegistry struct {
	Memory       cache.Cache[string, []byte]
	Disk         cache.Cache[string, []byte]
	Files        *filecache.Cache
	ResourceRoot string

	pool *flight.Pool
}

// CacheSummary 是单个缓存的诊断快照。
type CacheSummary struct {
	Name     string `json:"name"`
	Entries  int    `json:"entries"`
	Limit    int64  `json:"limit,omitempty"`
	Capacity int64  `json:"capacity,omitempty"`
	Summary  string `json:"summary"`
}

// NewCacheRegistry 根据配置构建内存、磁盘与文件内容缓存。磁盘缓存目录不存在时会被创建。
func NewCacheRegistry(cfg *config.Config, logger logrus.FieldLogger, recorder metrics.Recorder) (*CacheRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	memory, err := cache.NewMemory[string, []byte](
		cfg.MemoryCache.SizeLimit,
		cfg.MemoryCache.MaxAge.DurationValue(),
		cache.ByteSize,
		cache.WithName(MemoryCacheName),
		cache.WithLogger(logger),
		cache.WithRecorder(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}

	if err := os.MkdirAll(cfg.DiskCache.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create disk cache root: %w", err)
	}
	var codec cache.Codec[[]byte] = cache.BytesCodec{}
	if cfg.DiskCache.Compress {
		codec = cache.NewZstdCodec[[]byte](cache.BytesCodec{})
	}
	disk, err := cache.NewDisk[string, []byte](
		cfg.DiskCache.Root,
		cfg.DiskCache.SizeLimit,
		cfg.DiskCache.MaxAge.DurationValue(),
		cache.ByteSize,
		codec,
		cache.WithName(DiskCacheName),
		cache.WithLogger(logger),
		cache.WithRecorder(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("disk cache: %w", err)
	}

	registry := &CacheRegistry{
		Memory:       memory,
		Disk:         disk,
		ResourceRoot: cfg.Global.ResourceRoot,
	}

	fileOpts := []filecache.Option{
		filecache.WithLogger(logger),
		filecache.WithRecorder(recorder),
	}
	if cfg.FileCache.Workers > 0 {
		registry.pool = flight.NewPool(cfg.FileCache.Workers)
		fileOpts = append(fileOpts, filecache.WithExecutor(registry.pool))
	}
	files, err := filecache.New(cfg.FileCache.Capacity, fileOpts...)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("file cache: %w", err)
	}
	registry.Files = files

	return registry, nil
}

// Summaries 按固定顺序返回各缓存的诊断信息。
func (r *CacheRegistry) Summaries() []CacheSummary {
	result := make([]CacheSummary, 0, 3)
	if r.Memory != nil {
		result = append(result, boundedSummary(MemoryCacheName, r.Memory))
	}
	if r.Disk != nil {
		result = append(result, boundedSummary(DiskCacheName, r.Disk))
	}
	if r.Files != nil {
		result = append(result, CacheSummary{
			Name:    FileCacheName,
			Entries: r.Files.Len(),
			Summary: r.Files.String(),
		})
	}
	return result
}

// Close 等待文件读取 worker 退出。
func (r *CacheRegistry) Close() {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func boundedSummary(name string, c cache.Cache[string, []byte]) CacheSummary {
	return CacheSummary{
		Name:     name,
		Entries:  c.Len(),
		Limit:    c.Limit(),
		Capacity: c.Capacity(),
		Summary:  c.String(),
	}
}
