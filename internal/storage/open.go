package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	MongoURI      string
	MongoDatabase string

	// Cache puts a Redis front (RedisAddr) before a sqlite or mongo backend.
	Cache bool
	// Breaker guards remote backends with a circuit breaker.
	Breaker bool
}

// Open builds the configured KV. The caller owns the result and must Close it.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (KV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		kv     KV
		remote bool
	)
	switch opts.Backend {
	case BackendMemory, "":
		kv = NewMemory()
	case BackendSQLite:
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		kv = s
	case BackendRedis:
		client, err := ConnectRedis(ctx, opts.RedisAddr, opts.RedisPassword)
		if err != nil {
			return nil, err
		}
		kv = NewRedis(client, opts.RedisPrefix)
		remote = true
	case BackendMongo:
		db, err := ConnectMongoDB(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		kv = NewMongo(db)
		remote = true
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}

	if opts.Breaker && remote {
		kv = NewBreaker(kv, DefaultBreakerSettings(opts.Backend), logger)
	}

	if opts.Cache && opts.Backend != BackendRedis && opts.Backend != BackendMemory {
		client, err := ConnectRedis(ctx, opts.RedisAddr, opts.RedisPassword)
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("cache front: %w", err)
		}
		var front KV = NewRedisCache(client, "cache")
		if opts.Breaker {
			front = NewBreaker(front, DefaultBreakerSettings("cache"), logger)
		}
		kv = NewCached(front, kv, logger)
	}

	logger.Info("storage opened",
		zap.String("backend", opts.Backend),
		zap.Bool("cache", opts.Cache),
		zap.Bool("breaker", opts.Breaker))
	return kv, nil
}
