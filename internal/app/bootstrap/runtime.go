// Package bootstrap builds the runtime dependencies from configuration.
// Optional services degrade to nil so the API can run without them.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/opencourt/receptionist/internal/calendar"
	appconfig "github.com/opencourt/receptionist/internal/config"
	"github.com/opencourt/receptionist/pkg/logging"
)

// BuildPgxPool connects to Postgres and verifies the connection.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// BuildRedisClient returns a configured redis client or nil when disabled.
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
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildCalendarGateway returns the Google gateway wrapped with retries, or
// the stub when no credentials are configured.
func BuildCalendarGateway(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (calendar.Gateway, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var opts []option.ClientOption
	switch {
	case cfg.GoogleCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
	case cfg.GoogleCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	default:
		logger.Warn("no google credentials configured, using stub calendar gateway")
		return calendar.NewStubGateway(logger), nil
	}

	gw, err := calendar.NewGoogleGateway(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return calendar.NewRetryGateway(gw, cfg.CalendarRetryMaxAttempts, cfg.CalendarRetryBaseDelay, logger), nil
}
