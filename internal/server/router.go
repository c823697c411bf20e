package server

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/filecache"
	"github.com/wu-wayne/tiny-service/internal/logging"
)

// AppOptions controls which caches the Fiber application serves from.
type AppOptions struct {
	Logger *logrus.Logger
	Caches *CacheRegistry
}

const (
	contextKeyRequestID = "_tiny_request_id"
	contextKeyCacheHit  = "_tiny_cache_hit"
)

// NewApp builds a Fiber application with request-ID/access-log middleware and
// a static resource handler backed by the file content cache. Diagnostic and
// blob routes under /-/ are registered by the routes package.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Caches == nil {
		return nil, errors.New("cache registry is required")
	}
	if opts.Caches.Files == nil || opts.Caches.ResourceRoot == "" {
		return nil, errors.New("file cache and resource root are required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	app.Get("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(c.Path()) {
			return c.Next()
		}
		return serveResource(c, opts)
	})

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并在请求结束后输出访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		logger.WithFields(logging.RequestFields(reqID, c.Method(), c.Path(), status, CacheHit(c), time.Since(started))).
			Debug("request handled")
		return err
	}
}

// serveResource 通过文件内容缓存返回 ResourceRoot 下的静态文件。
func serveResource(c fiber.Ctx, opts AppOptions) error {
	name := resourcePath(opts.Caches.ResourceRoot, c.Path())
	hit := opts.Caches.Files.Contains(name)
	data, err := opts.Caches.Files.Get(c.Context(), name)
	if err != nil {
		if errors.Is(err, filecache.ErrFileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		opts.Logger.WithFields(logrus.Fields{
			"action":     "serve_resource",
			"path":       name,
			"request_id": RequestID(c),
		}).WithError(err).Warn("resource read failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "resource_unavailable"})
	}

	markCacheHit(c, hit)
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		c.Type(ext)
	}
	return c.Send(data)
}

// resourcePath 把请求路径限制在 root 之内，目录请求映射到 index.html。
func resourcePath(root, requestPath string) string {
	clean := path.Clean("/" + requestPath)
	if strings.HasSuffix(requestPath, "/") || clean == "/" {
		clean = path.Join(clean, "index.html")
	}
	return filepath.Join(root, filepath.FromSlash(clean))
}

func markCacheHit(c fiber.Ctx, hit bool) {
	c.Locals(contextKeyCacheHit, hit)
}

// CacheHit reports whether the handler answered from an existing cache entry.
func CacheHit(c fiber.Ctx) bool {
	if value, ok := c.Locals(contextKeyCacheHit).(bool); ok {
		return value
	}
	return false
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
