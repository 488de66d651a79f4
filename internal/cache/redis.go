package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"MacroLens/internal/model"
)

const redisKeyPrefix = "macrolens:series:"

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// RedisStore keeps gzip-compressed JSON series in Redis with per-key TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects lazily; the first command reports connectivity.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return &RedisStore{client: redis.NewClient(opts)}
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) (model.TimeSeries, bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.TimeSeries{}, false, nil
	} else if err != nil {
		return model.TimeSeries{}, false, err
	}
	ts, err := decodeSeries(val)
	if err != nil {
		return model.TimeSeries{}, false, err
	}
	return ts, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, ts model.TimeSeries, ttl time.Duration) error {
	val, err := encodeSeries(ts)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, val, ttl).Err()
}

func (r *RedisStore) Purge(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+prefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisStore) Close() error { return r.client.Close() }

func encodeSeries(ts model.TimeSeries) ([]byte, error) {
	raw, err := json.Marshal(ts)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	return b.Bytes(), nil
}

func decodeSeries(data []byte) (model.TimeSeries, error) {
	if len(data) == 0 {
		return model.TimeSeries{}, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return model.TimeSeries{}, fmt.Errorf("failed to decompress: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return model.TimeSeries{}, fmt.Errorf("failed to decompress: %w", err)
	}
	var ts model.TimeSeries
	if err := json.Unmarshal(raw, &ts); err != nil {
		return model.TimeSeries{}, err
	}
	return ts, nil
}
