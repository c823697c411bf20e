package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wu-wayne/tiny-service/internal/config"
)

func TestConfigureDefaultsToStdout(t *testing.T) {
	logger, err := InitLogger(config.GlobalConfig{LogLevel: "info"})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	if logger.Out != os.Stdout {
		t.Fatalf("未指定文件时应输出到 stdout")
	}
}

func TestInitLoggerFallbackOnPermissionDenied(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatalf("设置目录权限失败: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	cfg := config.GlobalConfig{
		LogLevel:    "info",
		LogFilePath: filepath.Join(blocked, "sub", "tiny-service.log"),
	}
	logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("初始化不应失败: %v", err)
	}
	if logger.Out != os.Stdout {
		t.Fatalf("fallback 时应退回 stdout")
	}
}

func TestConfigureCreatesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny-service.log")
	cfg := config.GlobalConfig{LogLevel: "debug", LogFilePath: path}
	logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	logger.Info("test")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("预期创建日志文件: %v", err)
	}
}

func TestFieldBuilders(t *testing.T) {
	fields := CacheFields("disk", "evict")
	if fields["cache"] != "disk" || fields["action"] != "evict" {
		t.Fatalf("unexpected cache fields: %v", fields)
	}

	req := RequestFields("id-1", "GET", "/-/cache", 200, true, 1500*time.Microsecond)
	if req["request_id"] != "id-1" || req["status"] != 200 || req["cache_hit"] != true {
		t.Fatalf("unexpected request fields: %v", req)
	}
	if req["elapsed_ms"] != int64(1) {
		t.Fatalf("elapsed should be truncated to milliseconds, got %v", req["elapsed_ms"])
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := InitLogger(config.GlobalConfig{LogLevel: "loud"}); err == nil {
		t.Fatalf("未知日志级别应报错")
	}
}

func TestInitLoggerAddsServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	logger, err := InitLogger(config.GlobalConfig{LogLevel: "info", LogFilePath: path})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	logger.WithFields(CacheFields("memory", "evict")).Info("entry")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	for _, want := range []string{`"service":"tiny-service"`, `"cache":"memory"`, `"action":"evict"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("日志缺少 %s: %s", want, string(data))
		}
	}
}
