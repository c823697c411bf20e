package config

import (
	"errors"
	"time"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if g.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}
	if g.ResourceRoot == "" {
		return newFieldError("ResourceRoot", "不能为空")
	}

	if err := validateBounds("MemoryCache", c.MemoryCache.SizeLimit, c.MemoryCache.MaxAge); err != nil {
		return err
	}

	if c.DiskCache.Root == "" {
		return newFieldError(tableField("DiskCache", "Root"), "不能为空")
	}
	if err := validateBounds("DiskCache", c.DiskCache.SizeLimit, c.DiskCache.MaxAge); err != nil {
		return err
	}

	if c.FileCache.Capacity < 1 {
		return newFieldError(tableField("FileCache", "Capacity"), "至少为 1")
	}
	if c.FileCache.Workers < 0 {
		return newFieldError(tableField("FileCache", "Workers"), "不能为负数")
	}

	return nil
}

// validateBounds 与缓存构造函数保持一致：容量至少 1 字节，过期时间至少 1 秒。
func validateBounds(table string, limit int64, maxAge Duration) error {
	if limit < 1 {
		return newFieldError(tableField(table, "SizeLimit"), "必须大于 0")
	}
	if maxAge.DurationValue() < time.Second {
		return newFieldError(tableField(table, "MaxAge"), "不能小于 1s")
	}
	return nil
}
