package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wu-wayne/tiny-service/internal/server"
)

// RegisterDiagnosticRoutes 暴露 /-/cache 缓存摘要与 /-/metrics 指标接口。
// gatherer 为空时不注册 /-/metrics。
func RegisterDiagnosticRoutes(app *fiber.App, registry *server.CacheRegistry, gatherer prometheus.Gatherer) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"caches": registry.Summaries(),
		})
	})

	if gatherer != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
