package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds login throttle tuning parameters.
type Config struct {
	Prefix           string
	EnableIPThrottle bool
	MaxLoginAttempts int
	LockoutWindow    time.Duration
}

// Limiter counts failed logins per login id (and optionally per client IP)
// in Redis fixed windows.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Throttle keys end in ":fails", so no login id can make one collide with a
// "<loginId>:refresh" session record or a "blacklist:" entry.
func (l *Limiter) loginKey(loginID string) string {
	return l.config.Prefix + "throttle:login:" + loginID + ":fails"
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.Prefix + "throttle:ip:" + ip + ":fails"
}

// storeError maps a Redis failure onto ErrRedisUnavailable. A value that is
// not a counter yields ErrCorruptCounter without its text, since the value
// may be a credential.
func storeError(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return ErrCorruptCounter
	}
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

// CheckLogin returns ErrRateLimited once the failure budget for loginID (or ip)
// is spent within the current window.
func (l *Limiter) CheckLogin(ctx context.Context, loginID, ip string) error {
	if err := l.checkCounter(ctx, l.loginKey(loginID)); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, l.loginIPKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt.
func (l *Limiter) IncrementLogin(ctx context.Context, loginID, ip string) error {
	if _, err := l.incrementWithTTL(ctx, l.loginKey(loginID), l.config.LockoutWindow); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if _, err := l.incrementWithTTL(ctx, l.loginIPKey(ip), l.config.LockoutWindow); err != nil {
			return err
		}
	}

	return nil
}

// ResetLogin clears the failure counter for loginID. The IP counter is left
// alone so one good account cannot launder a sprayed IP.
func (l *Limiter) ResetLogin(ctx context.Context, loginID string) error {
	if err := l.redis.Del(ctx, l.loginKey(loginID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoginAttempts returns the current failure count for loginID.
// Missing keys return zero.
func (l *Limiter) LoginAttempts(ctx context.Context, loginID string) (int, error) {
	count, err := l.redis.Get(ctx, l.loginKey(loginID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, storeError(err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return storeError(err)
	}

	if count >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
