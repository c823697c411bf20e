package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := absolutize(&cfg.DiskCache.Root, "DiskCache.Root"); err != nil {
		return nil, err
	}
	if err := absolutize(&cfg.Global.ResourceRoot, "ResourceRoot"); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ResourceRoot", "./public")
	v.SetDefault("MemoryCache.SizeLimit", 16*1024*1024)
	v.SetDefault("MemoryCache.MaxAge", "30s")
	v.SetDefault("DiskCache.Root", "./storage/cache")
	v.SetDefault("DiskCache.SizeLimit", 64*1024*1024)
	v.SetDefault("DiskCache.MaxAge", "24h")
	v.SetDefault("DiskCache.Compress", false)
	v.SetDefault("FileCache.Capacity", 128)
	v.SetDefault("FileCache.Workers", 4)
}

func applyDefaults(cfg *Config) {
	if cfg.Global.ListenPort == 0 {
		cfg.Global.ListenPort = 5000
	}
	if cfg.MemoryCache.MaxAge.DurationValue() == 0 {
		cfg.MemoryCache.MaxAge = Duration(30 * time.Second)
	}
	if cfg.DiskCache.MaxAge.DurationValue() == 0 {
		cfg.DiskCache.MaxAge = Duration(24 * time.Hour)
	}
}

func absolutize(path *string, field string) error {
	abs, err := filepath.Abs(*path)
	if err != nil {
		return newFieldError(field, fmt.Sprintf("无法解析路径: %v", err))
	}
	*path = abs
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
