package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/acquaintance/internal/auth"
	"github.com/oggyb/acquaintance/internal/cache"
	"github.com/oggyb/acquaintance/internal/config"
	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/logger"
	"github.com/oggyb/acquaintance/internal/utils/pagination"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestIDKey = "request_id"
	ctxUserIDKey    = "userID"
)

// RequestID reuses an inbound X-Request-ID or mints one, and attaches a
// request-scoped logger carrying it.
func RequestID(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, id)
		c.Header(HeaderRequestID, id)

		ctx := logger.IntoContext(c.Request.Context(), log.With("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.FromContext(c.Request.Context()).Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// CORS allows the configured origins and exposes the out-of-band headers.
func CORS(cfg *config.Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
		ExposeHeaders:    []string{pagination.HeaderName, "Location", HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := cfg.HTTP.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// RequireAuth verifies the bearer token and puts the subject on the request context.
func RequireAuth(verifier interface {
	Verify(string) (auth.Subject, error)
}) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, raw, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			abortWithError(c, apperr.Unauthorized("missing bearer token"))
			return
		}

		subject, err := verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ctxUserIDKey, subject.ID)
		c.Request = c.Request.WithContext(auth.ContextWithSubject(c.Request.Context(), subject))
		c.Next()
	}
}

// ActivityToucher records authenticated activity.
type ActivityToucher interface {
	TouchActivity(ctx context.Context, id uint64) error
}

// Activity updates the caller's lastActive after a successful authenticated request.
// Failures are logged only.
func Activity(t ActivityToucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		subject, ok := auth.SubjectFromContext(c.Request.Context())
		if !ok {
			return
		}
		ctx := context.WithoutCancel(c.Request.Context())
		if err := t.TouchActivity(ctx, subject.ID); err != nil {
			logger.FromContext(ctx).Warn("touch activity failed", "user_id", subject.ID, "err", err)
		}
	}
}

// LoginRateLimit caps attempts per client IP in a fixed window using an atomic
// Redis counter. Redis errors let the request through.
func LoginRateLimit(rc *cache.RedisCache, limit int, window time.Duration) gin.HandlerFunc {
	if rc == nil || limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := "rl:login:ip:" + c.ClientIP()

		count, ttl, err := rc.Hit(c.Request.Context(), key, window)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		resetSec := int((ttl + time.Second - 1) / time.Second)
		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if int(count) > limit {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: "too many login attempts",
			})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64(ctxUserIDKey)
}
