package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimitConfig holds fixed-window rate limit settings.
type RateLimitConfig struct {
	// MaxRequests allowed per Window.
	MaxRequests int
	// Window is the counting window.
	Window time.Duration
	// KeyPrefix namespaces the Redis counters.
	KeyPrefix string
}

// DefaultActionRateLimitConfig limits the action endpoint as a whole.
func DefaultActionRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 30,
		Window:      1 * time.Minute,
		KeyPrefix:   "rl:actions",
	}
}

// OTPRateLimitConfig is the tighter window applied to SEND_OTP and
// VERIFY_OTP. The lockout counter handles targeted guessing; this caps
// blind spraying across many emails from one address.
func OTPRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 10,
		Window:      1 * time.Minute,
		KeyPrefix:   "rl:otp",
	}
}

// RateLimiter is a Redis-backed fixed-window limiter.
type RateLimiter struct {
	redisClient redis.UniversalClient
}

func NewRateLimiter(redisClient redis.UniversalClient) *RateLimiter {
	return &RateLimiter{redisClient: redisClient}
}

// LimitByIP caps requests per client IP. Fail-open on Redis errors: the
// limiter protects against abuse, it must not take the service down.
func (rl *RateLimiter) LimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.limit(c, cfg)
	}
}

// LimitActions keys counters per IP and action, so the tighter OTP window
// applies only to the OTP actions while the rest of the dispatch endpoint
// keeps the default budget. The body is peeked for the action selector and
// restored for the handler.
func (rl *RateLimiter) LimitActions(defaultCfg, otpCfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.Request.Body.Close()
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
			return
		}
		c.Request.Body.Close()
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var selector struct {
			Action string `json:"action"`
		}
		// Malformed bodies fall through with an empty action; the handler
		// produces the proper error response.
		_ = json.Unmarshal(body, &selector)
		action := strings.ToUpper(strings.TrimSpace(selector.Action))

		cfg := defaultCfg
		if action == "SEND_OTP" || action == "VERIFY_OTP" {
			cfg = otpCfg
		}
		if action != "" {
			cfg.KeyPrefix = fmt.Sprintf("%s:%s", cfg.KeyPrefix, action)
		}

		rl.limit(c, cfg)
	}
}

func (rl *RateLimiter) limit(c *gin.Context, cfg RateLimitConfig) {
	clientIP := c.ClientIP()
	key := fmt.Sprintf("%s:%s", cfg.KeyPrefix, clientIP)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := rl.redisClient.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[RateLimiter] Redis error for key %s: %v. Allowing request (fail-open).", key, err)
		c.Next()
		return
	}

	// First request in the window sets the TTL.
	if count == 1 {
		if err := rl.redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
			log.Printf("[RateLimiter] Failed to set TTL for key %s: %v", key, err)
		}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	ttl, _ := rl.redisClient.TTL(ctx, key).Result()
	retryAfter := int(ttl.Seconds())
	if retryAfter < 0 {
		retryAfter = int(cfg.Window.Seconds())
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

	if int(count) > cfg.MaxRequests {
		log.Printf("[RateLimiter] Rate limit exceeded for IP=%s key=%s. Count=%d, Limit=%d",
			clientIP, cfg.KeyPrefix, count, cfg.MaxRequests)

		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many requests. Please try again later.",
			"error_type":  "rate_limited",
			"retry_after": retryAfter,
		})
		return
	}

	c.Next()
}
