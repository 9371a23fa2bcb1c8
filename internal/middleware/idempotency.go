package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "ironlog:idempotency:"

// IdempotencyMiddleware provides idempotency for POST requests using X-Correlation-ID.
// If the same caller repeats a correlation ID on the same method and path within
// the TTL, the stored status and body are replayed instead of running the
// handler again. The same ID sent to another endpoint is a different request.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		correlationID := c.Get("X-Correlation-ID")
		if correlationID == "" {
			// No correlation ID = no idempotency check
			return c.Next()
		}

		key := idempotencyKey(GetUserID(c), c.Method(), c.Path(), correlationID)
		ctx := c.UserContext()

		cached, err := redisClient.HGetAll(ctx, key).Result()
		if err == nil && cached["body"] != "" {
			status, _ := strconv.Atoi(cached["status"])
			if status == 0 {
				status = fiber.StatusOK
			}
			c.Set("X-Idempotent-Replay", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(status).SendString(cached["body"])
		}
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "key", key, "error", err)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		body := string(c.Response().Body())
		if statusCode < 200 || statusCode >= 300 || body == "" {
			return nil
		}

		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_, err = redisClient.TxPipelined(storeCtx, func(pipe redis.Pipeliner) error {
			pipe.HSet(storeCtx, key, "status", statusCode, "body", body)
			pipe.Expire(storeCtx, key, ttl)
			return nil
		})
		if err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "key", key, "error", err)
		}
		return nil
	}
}

// idempotencyKey scopes a correlation ID to the caller and the endpoint:
// ironlog:idempotency:<user>:<METHOD>:<path>:<correlation id>
func idempotencyKey(userID, method, path, correlationID string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", idempotencyKeyPrefix, userID, method, path, correlationID)
}
