package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "tubebridge:session:"
	scanBatch = 100
)

// redisClient is the subset of *redis.Client the store needs.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisStore keeps sessions in Redis so they survive restarts and can be
// shared between bot replicas. Keys carry a TTL; Get also checks CreatedAt.
type RedisStore struct {
	rdb redisClient
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore connects to url (redis://...) and pings it.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisStore(rdb, ttl), nil
}

func newRedisStore(rdb redisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

// Close releases the underlying client when it owns one.
func (r *RedisStore) Close() error {
	if c, ok := r.rdb.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}

func key(userID int64) string { return keyPrefix + strconv.FormatInt(userID, 10) }

func (r *RedisStore) Put(ctx context.Context, userID int64, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key(userID), b, r.ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (Entry, error) {
	e, err := r.decode(r.rdb.Get(ctx, key(userID)).Result())
	if errors.Is(err, ErrExpired) {
		_ = r.rdb.Del(ctx, key(userID)).Err()
	}
	return e, err
}

// Take claims the entry with GETDEL so concurrent callers cannot both get it.
func (r *RedisStore) Take(ctx context.Context, userID int64) (Entry, error) {
	return r.decode(r.rdb.GetDel(ctx, key(userID)).Result())
}

func (r *RedisStore) decode(val string, err error) (Entry, error) {
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return Entry{}, fmt.Errorf("decode session: %w", err)
	}
	if expired(e, r.now(), r.ttl) {
		return Entry{}, ErrExpired
	}
	return e, nil
}

// Len walks the session keys with SCAN.
func (r *RedisStore) Len(ctx context.Context) (int, error) {
	var (
		n      int
		cursor uint64
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return 0, err
		}
		n += len(keys)
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}
