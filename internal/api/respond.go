package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library

	"wallet_ledger/internal/ledger"     // Ledger engine
	"wallet_ledger/internal/middleware" // Auth context helpers
	"wallet_ledger/internal/utils"      // Cache helpers
)

// statusFor maps a ledger error kind to an HTTP status
func statusFor(err error) int {
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindUnauthorized:
		return http.StatusUnauthorized
	case ledger.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure result for err
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"status": ledger.StatusError, "message": ledger.Message(err)})
}

// badRequest writes a failure result for malformed input
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": ledger.StatusError, "message": msg})
}

// currentUser returns the authenticated user ID, writing 401 when absent
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": ledger.StatusError, "message": "Unauthorized"})
	}
	return userID, ok
}

// cached serves key from Redis when present, otherwise calls load and caches
// its result for ttl. A nil client disables caching; Redis errors only log.
func cached[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if rdb != nil {
		var hit T
		found, err := utils.GetCache(ctx, rdb, key, &hit)
		if err == nil && found {
			return hit, nil
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
		}
	}
	val, err := load()
	if err != nil {
		return val, err
	}
	if rdb != nil {
		if err := utils.SetCache(ctx, rdb, key, val, ttl); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
		}
	}
	return val, nil
}

// cachedForUser is cached with the key pinned to the user's current cache
// generation, so a load that overlaps a write never outlives the write's
// invalidation. Without a readable generation the load is served uncached.
func cachedForUser[T any](ctx context.Context, rdb *redis.Client, userID uint, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if rdb == nil {
		return load()
	}
	gen, err := utils.UserGeneration(ctx, rdb, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache generation read failed")
		return load()
	}
	return cached(ctx, rdb, utils.VersionedKey(key, gen), ttl, load)
}

// invalidate drops cached read models of the given users
func invalidate(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	if rdb == nil {
		return
	}
	if err := utils.InvalidateUser(ctx, rdb, userIDs...); err != nil {
		logrus.WithFields(logrus.Fields{"user_ids": userIDs, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}
