package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/logging"
)

// Logger logs one JSON line per request with request_id, method, path, status and
// latency (milliseconds, float). user_id is added once the request is authenticated.
// Errors from later handlers are passed to the app's ErrorHandler and not returned.
func Logger(log *logging.Logger) fiber.Handler {
	log = log.With(map[string]any{"component": "http"})

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Errors are rendered here so the logged status is the one sent.
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := "info"
		switch {
		case status >= fiber.StatusInternalServerError:
			level = "error"
		case status >= fiber.StatusBadRequest:
			level = "warn"
		}

		entry := map[string]any{
			"level":      level,
			"request_id": RequestIDFrom(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if u, ok := CurrentUser(c); ok {
			entry["user_id"] = u.ID
		}
		log.Log(entry)

		return nil
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}
