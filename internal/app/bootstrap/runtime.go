package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dgs-intellisol/nexuscrux-website/internal/auth"
	appconfig "github.com/dgs-intellisol/nexuscrux-website/internal/config"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; token revocation disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRevocationStore returns the Redis-backed revocation store, or nil
// when Redis is not configured.
func BuildRevocationStore(client *redis.Client) auth.RevocationStore {
	if client == nil {
		return nil
	}
	return auth.NewRedisRevocationStore(client)
}
