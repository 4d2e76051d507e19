package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sellora/sellora-backend/config"
	"github.com/sellora/sellora-backend/pkg/logger"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// BlacklistToken adds a token to the blacklist
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}

	return val == "revoked", nil
}

// mergeLockTTL bounds how long a crashed merge can hold its guest lock.
const mergeLockTTL = 30 * time.Second

// MergeLock is a distributed lock keyed on guest id, used to keep guest cart
// merges single-writer across server instances. It satisfies the cart
// service's GuestLocker interface.
type MergeLock struct {
	client *redis.Client
}

func NewMergeLock(c *redis.Client) *MergeLock {
	return &MergeLock{client: c}
}

// Lock polls SetNX until the guest lock is acquired.
func (l *MergeLock) Lock(guestID string) {
	key := fmt.Sprintf("merge_lock:%s", guestID)
	ctx := context.Background()
	for {
		ok, err := l.client.SetNX(ctx, key, "locked", mergeLockTTL).Result()
		if err != nil {
			logger.Error("Failed to acquire merge lock, retrying", err, map[string]interface{}{
				"guest_id": guestID,
			})
		}
		if ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Unlock releases the guest lock.
func (l *MergeLock) Unlock(guestID string) {
	key := fmt.Sprintf("merge_lock:%s", guestID)
	if err := l.client.Del(context.Background(), key).Err(); err != nil {
		logger.Error("Failed to release merge lock", err, map[string]interface{}{
			"guest_id": guestID,
		})
	}
}
