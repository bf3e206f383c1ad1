package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const rateLimitKeyPrefix = "habits:rate_limit:"

// RateLimit is a fixed-window quota: Limit requests per Window.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// rateLimitKey buckets authenticated callers by token subject, so one owner
// shares a quota across devices. Anonymous callers are bucketed by IP.
func rateLimitKey(c *gin.Context) string {
	if subject, ok := GetSubject(c); ok && subject != "" {
		return rateLimitKeyPrefix + "sub:" + subject
	}
	return rateLimitKeyPrefix + "ip:" + c.ClientIP()
}

// RateLimiter enforces rl per caller. Mount it after AuthMiddleware so the
// subject is known. Requests go through when Redis is unavailable.
func RateLimiter(rdb *redis.Client, rl RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rateLimitKey(c)

		var incr *redis.IntCmd
		var pttl *redis.DurationCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pttl = pipe.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			log.WithField("key", key).Warnf("[RATE] Redis unavailable, request allowed: %v", err)
			c.Next()
			return
		}

		count := incr.Val()
		ttl := pttl.Val()
		// A fresh key, or one whose expiry was lost, starts a new window.
		if ttl < 0 {
			if err := rdb.PExpire(ctx, key, rl.Window).Err(); err != nil {
				log.WithField("key", key).Warnf("[RATE] Could not set window, dropping key: %v", err)
				rdb.Del(ctx, key)
				c.Next()
				return
			}
			ttl = rl.Window
		}

		remaining := int64(rl.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(rl.Limit) {
			retry := int(ttl.Round(time.Second).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":         "rate limit exceeded",
				"retry_after_s": retry,
				"request_id":    c.GetString(ContextRequestIDKey),
			})
			return
		}

		c.Next()
	}
}
