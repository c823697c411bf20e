package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级参数：监听端口、日志与静态资源目录。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	ResourceRoot  string `mapstructure:"ResourceRoot"`
}

// MemoryCacheConfig 对应 [MemoryCache] 表。
type MemoryCacheConfig struct {
	SizeLimit int64    `mapstructure:"SizeLimit"`
	MaxAge    Duration `mapstructure:"MaxAge"`
}

// DiskCacheConfig 对应 [DiskCache] 表；Compress 打开后以 zstd 落盘。
type DiskCacheConfig struct {
	Root      string   `mapstructure:"Root"`
	SizeLimit int64    `mapstructure:"SizeLimit"`
	MaxAge    Duration `mapstructure:"MaxAge"`
	Compress  bool     `mapstructure:"Compress"`
}

// FileCacheConfig 对应 [FileCache] 表；Workers 为 0 时在请求 goroutine 内读取文件。
type FileCacheConfig struct {
	Capacity int `mapstructure:"Capacity"`
	Workers  int `mapstructure:"Workers"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global      GlobalConfig      `mapstructure:",squash"`
	MemoryCache MemoryCacheConfig `mapstructure:"MemoryCache"`
	DiskCache   DiskCacheConfig   `mapstructure:"DiskCache"`
	FileCache   FileCacheConfig   `mapstructure:"FileCache"`
}
