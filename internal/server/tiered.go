package server

import (
	"errors"
	"fmt"
)

// ErrBlobRejected 表示两级缓存都拒绝了该值。
var ErrBlobRejected = errors.New("blob rejected by every cache tier")

// PutBlob 先尝试内存层，放不下再落到磁盘层，返回接受写入的层名称。
// 写入成功后清理另一层的旧副本，保证同一个键只存在于一层。
func (r *CacheRegistry) PutBlob(key string, data []byte) (string, error) {
	ok, err := r.Memory.Put(key, data)
	if err != nil {
		return "", fmt.Errorf("%s put: %w", MemoryCacheName, err)
	}
	if ok {
		if _, _, err := r.Disk.Remove(key); err != nil {
			return MemoryCacheName, fmt.Errorf("%s cleanup: %w", DiskCacheName, err)
		}
		return MemoryCacheName, nil
	}

	ok, err = r.Disk.Put(key, data)
	if err != nil {
		return "", fmt.Errorf("%s put: %w", DiskCacheName, err)
	}
	if !ok {
		return "", ErrBlobRejected
	}
	r.Memory.Remove(key)
	return DiskCacheName, nil
}

// GetBlob 依次查询内存层与磁盘层，返回命中的层名称；均未命中时 tier 为空。
func (r *CacheRegistry) GetBlob(key string) ([]byte, string, error) {
	if data, ok, err := r.Memory.Get(key); err != nil {
		return nil, "", fmt.Errorf("%s get: %w", MemoryCacheName, err)
	} else if ok {
		return data, MemoryCacheName, nil
	}

	data, ok, err := r.Disk.Get(key)
	if err != nil {
		return nil, "", fmt.Errorf("%s get: %w", DiskCacheName, err)
	}
	if !ok {
		return nil, "", nil
	}
	return data, DiskCacheName, nil
}

// DeleteBlob 从两层同时删除，返回是否有任一层持有该键。磁盘读取失败时条目依然会被删除。
func (r *CacheRegistry) DeleteBlob(key string) (bool, error) {
	_, inMemory, _ := r.Memory.Remove(key)
	_, onDisk, err := r.Disk.Remove(key)
	if err != nil {
		return true, fmt.Errorf("%s remove: %w", DiskCacheName, err)
	}
	return inMemory || onDisk, nil
}
