package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key prefixes for per-user read models
const (
	balanceKeyPrefix  = "wallet:balance:user:"
	summaryKeyPrefix  = "wallet:summary:user:"
	cashflowKeyPrefix = "wallet:cashflow:user:"
	genKeyPrefix      = "wallet:gen:user:"
)

// BalanceKey is the cache key of a user's balance
func BalanceKey(userID uint) string { return balanceKeyPrefix + strconv.FormatUint(uint64(userID), 10) }

// SummaryKey is the cache key of a user's summary
func SummaryKey(userID uint) string { return summaryKeyPrefix + strconv.FormatUint(uint64(userID), 10) }

// CashflowKey is the cache key of a user's cashflow for one period
func CashflowKey(userID uint, period string) string {
	return cashflowKeyPrefix + strconv.FormatUint(uint64(userID), 10) + ":" + period
}

// GenerationKey holds the counter bumped on every invalidation of a user
func GenerationKey(userID uint) string { return genKeyPrefix + strconv.FormatUint(uint64(userID), 10) }

// UserGeneration returns the current cache generation of a user, zero when unset
func UserGeneration(ctx context.Context, rdb *redis.Client, userID uint) (int64, error) {
	gen, err := rdb.Get(ctx, GenerationKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// VersionedKey pins key to a generation. Values written under an older
// generation are never read again and expire with their TTL.
func VersionedKey(key string, gen int64) string { return key + ":v" + strconv.FormatInt(gen, 10) }

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// DeleteCachePrefix deletes every key starting with prefix
func DeleteCachePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return DeleteCache(ctx, rdb, keys...)
}

// InvalidateUser drops every cached read model of the given users after a
// balance or profile change
func InvalidateUser(ctx context.Context, rdb *redis.Client, userIDs ...uint) error {
	for _, id := range userIDs {
		// Bump first so loads racing with this write land on a dead generation
		if err := rdb.Incr(ctx, GenerationKey(id)).Err(); err != nil {
			return err
		}
		for _, prefix := range []string{BalanceKey(id) + ":", SummaryKey(id) + ":", CashflowKey(id, "")} {
			if err := DeleteCachePrefix(ctx, rdb, prefix); err != nil {
				return err
			}
		}
	}
	return nil
}
