package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// CacheFields 是缓存内部日志的公共字段。
func CacheFields(cache, action string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"cache":  cache,
	}
}

// RequestFields 提供请求 ID、路由与耗时字段，供 HTTP 访问日志复用。
func RequestFields(requestID, method, path string, status int, cacheHit bool, elapsed time.Duration) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
		"cache_hit":  cacheHit,
		"elapsed_ms": elapsed.Milliseconds(),
	}
}
