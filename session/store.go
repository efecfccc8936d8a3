package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport or server failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned by reads of absent or expired keys.
var ErrNotFound = errors.New("session key not found")

// ErrInvalidTTL is returned by writes with a non-positive TTL. The store never
// writes permanent keys.
var ErrInvalidTTL = errors.New("ttl must be positive")

// ErrRefreshRevoked is returned by RotateRefresh when the presented token is blacklisted.
var ErrRefreshRevoked = errors.New("refresh token revoked")

// ErrRefreshNotFound is returned by RotateRefresh when no session record exists.
var ErrRefreshNotFound = errors.New("refresh session not found")

// ErrRefreshMismatch is returned by RotateRefresh when the presented token is
// not the one currently on record.
var ErrRefreshMismatch = errors.New("refresh token mismatch")

const (
	refreshSuffix   = ":refresh"
	blacklistPrefix = "blacklist:"
)

const (
	rotateStatusRevoked  int64 = 0
	rotateStatusNotFound int64 = 1
	rotateStatusMismatch int64 = 2
	rotateStatusRotated  int64 = 3
)

// KEYS[1] session record, KEYS[2] blacklist entry for the presented token.
// ARGV[1] presented token, ARGV[2] replacement, ARGV[3] ttl in ms.
const rotateRefreshScript = `
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
local current = redis.call("GET", KEYS[1])
if not current then
  return 1
end
if current ~= ARGV[1] then
  return 2
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 3
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// RefreshKey returns the session record key for loginID.
func RefreshKey(loginID string) string {
	return loginID + refreshSuffix
}

// BlacklistKey returns the revocation key for a token string.
func BlacklistKey(token string) string {
	return blacklistPrefix + token
}

// Store is a Redis-backed key/value store with mandatory TTLs, plus the
// refresh-session and blacklist operations built on it.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store. A non-empty prefix namespaces every key as prefix + ":" + key.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Set writes value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get reads key. Absent keys return ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return val, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// SaveRefresh records token as the current refresh token for loginID,
// overwriting any previous record.
//
//	Performance: 1 Redis SET.
func (s *Store) SaveRefresh(ctx context.Context, loginID, token string, ttl time.Duration) error {
	return s.Set(ctx, RefreshKey(loginID), token, ttl)
}

// CurrentRefresh returns the refresh token on record for loginID.
func (s *Store) CurrentRefresh(ctx context.Context, loginID string) (string, error) {
	return s.Get(ctx, RefreshKey(loginID))
}

// IsRevoked reports whether token has a live blacklist entry.
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.Exists(ctx, BlacklistKey(token))
}

// Revoke blacklists token for ttl. A non-positive ttl means the token is
// already past its lifetime, so nothing is written.
func (s *Store) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Set(ctx, BlacklistKey(token), "1", ttl)
}

// EndSession blacklists refreshToken (when non-empty and ttl > 0) and deletes
// the session record for loginID in one MULTI/EXEC. Missing state is not an error.
//
//	Performance: 1 transactional pipeline (SET + DEL).
func (s *Store) EndSession(ctx context.Context, loginID, refreshToken string, ttl time.Duration) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if refreshToken != "" && ttl > 0 {
			pipe.Set(ctx, s.key(BlacklistKey(refreshToken)), "1", ttl)
		}
		if loginID != "" {
			pipe.Del(ctx, s.key(RefreshKey(loginID)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RotateRefresh atomically replaces the session record for loginID with next,
// provided presented is the token on record and is not blacklisted.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) RotateRefresh(ctx context.Context, loginID, presented, next string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	code, err := rotateRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.key(RefreshKey(loginID)), s.key(BlacklistKey(presented))},
		presented,
		next,
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch code {
	case rotateStatusRevoked:
		return ErrRefreshRevoked
	case rotateStatusNotFound:
		return ErrRefreshNotFound
	case rotateStatusMismatch:
		return ErrRefreshMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown refresh script status %d", ErrRedisUnavailable, code)
	}
}

// TTL returns the remaining lifetime of key, or ErrNotFound.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.redis.PTTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if d < 0 {
		return 0, ErrNotFound
	}
	return d, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
