package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

func logRequests(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status, _ = classifyError(err)
	}

	slog.Debug("HTTP request",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
	)

	return err
}
