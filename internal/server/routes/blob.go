package routes

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/wu-wayne/tiny-service/internal/server"
)

// RegisterBlobRoutes 暴露 /-/blob/:key，读写内存 → 磁盘两级缓存。
func RegisterBlobRoutes(app *fiber.App, registry *server.CacheRegistry, logger logrus.FieldLogger) {
	if app == nil || registry == nil {
		return
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	app.Get("/-/blob/:key", func(c fiber.Ctx) error {
		key, ok := blobKey(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "blob_key_required"})
		}
		data, tier, err := registry.GetBlob(key)
		if err != nil {
			logBlobError(logger, c, "blob_get", key, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage_failure"})
		}
		if tier == "" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "blob_not_found"})
		}
		c.Set("X-Cache-Tier", tier)
		c.Type("bin")
		return c.Send(data)
	})

	app.Put("/-/blob/:key", func(c fiber.Ctx) error {
		key, ok := blobKey(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "blob_key_required"})
		}
		tier, err := registry.PutBlob(key, bytes.Clone(c.Body()))
		switch {
		case errors.Is(err, server.ErrBlobRejected):
			return c.Status(fiber.StatusInsufficientStorage).JSON(fiber.Map{"error": "capacity_exceeded"})
		case err != nil && tier == "":
			logBlobError(logger, c, "blob_put", key, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage_failure"})
		case err != nil:
			logBlobError(logger, c, "blob_put", key, err)
		}
		c.Set("X-Cache-Tier", tier)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"key":  key,
			"tier": tier,
			"size": len(c.Body()),
		})
	})

	app.Delete("/-/blob/:key", func(c fiber.Ctx) error {
		key, ok := blobKey(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "blob_key_required"})
		}
		found, err := registry.DeleteBlob(key)
		if err != nil {
			logBlobError(logger, c, "blob_delete", key, err)
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "blob_not_found"})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func blobKey(c fiber.Ctx) (string, bool) {
	key := strings.TrimSpace(c.Params("key"))
	return key, key != ""
}

func logBlobError(logger logrus.FieldLogger, c fiber.Ctx, action, key string, err error) {
	logger.WithFields(logrus.Fields{
		"action":     action,
		"key":        key,
		"request_id": server.RequestID(c),
	}).WithError(err).Warn("blob storage failure")
}
