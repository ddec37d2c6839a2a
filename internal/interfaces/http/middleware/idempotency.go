package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retail/sales/internal/infrastructure/cache"
	"github.com/retail/sales/internal/infrastructure/logger"
	"github.com/retail/sales/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-chosen key of a retryable write
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// IdempotencyConfig holds idempotency middleware configuration
type IdempotencyConfig struct {
	Store   cache.IdempotencyStore
	TTL     time.Duration
	Enabled bool
}

// Idempotency rejects a POST or PUT whose Idempotency-Key was already used on the same path.
// A failed request (status >= 400) releases its key so the client can retry.
// Store errors let the request through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Store == nil {
		return passThrough
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || (method != http.MethodPost && method != http.MethodPut) {
			c.Next()
			return
		}

		requestID := c.GetString(RequestIDKey)
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Idempotency-Key is too long", requestID))
			return
		}

		ctx := c.Request.Context()
		scoped := method + " " + c.Request.URL.Path + " " + key
		reserved, err := cfg.Store.Reserve(ctx, scoped, cfg.TTL)
		if err != nil {
			logger.GetGinLogger(c).Warn("Idempotency store unavailable, processing request anyway", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeConflict,
					"A request with this Idempotency-Key has already been processed", requestID))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := cfg.Store.Release(ctx, scoped); err != nil {
				logger.GetGinLogger(c).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
