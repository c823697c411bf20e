package config

import (
	"testing"
	"time"
)

func TestLoadFailsWithMissingFile(t *testing.T) {
	if _, err := Load(testConfigPath(t, "absent.toml")); err == nil {
		t.Fatalf("不存在的配置文件应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
[MemoryCache]
MaxAge = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsSecondsAsInteger(t *testing.T) {
	cfg := `
[DiskCache]
MaxAge = 90
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if loaded.DiskCache.MaxAge.DurationValue() != 90*time.Second {
		t.Fatalf("整数应按秒解析, got %v", loaded.DiskCache.MaxAge.DurationValue())
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	testCases := []struct {
		raw  string
		want time.Duration
		err  bool
	}{
		{"5m", 5 * time.Minute, false},
		{"30", 30 * time.Second, false},
		{"0x10", 16 * time.Second, false},
		{"", 0, false},
		{"soon", 0, true},
	}

	for _, tc := range testCases {
		var d Duration
		err := d.UnmarshalText([]byte(tc.raw))
		if tc.err {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil || d.DurationValue() != tc.want {
			t.Fatalf("%q: want %v, got %v (%v)", tc.raw, tc.want, d.DurationValue(), err)
		}
	}
}
