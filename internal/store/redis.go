package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/academia-artes/course-assistant/internal/model"
)

const (
	greetedKey = "assistant:greeted"

	// DefaultIntakeTTL bounds how long an abandoned intake is kept.
	DefaultIntakeTTL = 24 * time.Hour
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IntakeTTL    time.Duration
}

// Redis is a Store backed by Redis, so conversation state survives restarts.
// Turns are serialized per conversation only within one process; replicas
// sharing the same Redis do not coordinate.
type Redis struct {
	client    *redis.Client
	intakeTTL time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisFromClient(client, cfg.IntakeTTL), nil
}

// NewRedisFromClient wraps an existing client. A zero ttl uses DefaultIntakeTTL.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultIntakeTTL
	}
	return &Redis{client: client, intakeTTL: ttl}
}

func intakeKey(key model.ConversationKey) string {
	return fmt.Sprintf("assistant:intake:%s", key)
}

func usageKey(key model.ConversationKey) string {
	return fmt.Sprintf("assistant:usage:%s", key)
}

// GetIntake loads the pending intake.
func (r *Redis) GetIntake(ctx context.Context, key model.ConversationKey) (*model.IntakeRecord, error) {
	data, err := r.client.Get(ctx, intakeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake: %w", err)
	}

	var rec model.IntakeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intake: %w", err)
	}
	return &rec, nil
}

// SaveIntake stores the intake as JSON and refreshes its TTL.
func (r *Redis) SaveIntake(ctx context.Context, key model.ConversationKey, rec *model.IntakeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal intake: %w", err)
	}
	if err := r.client.Set(ctx, intakeKey(key), data, r.intakeTTL).Err(); err != nil {
		return fmt.Errorf("failed to save intake: %w", err)
	}
	return nil
}

// DeleteIntake removes the pending intake.
func (r *Redis) DeleteIntake(ctx context.Context, key model.ConversationKey) error {
	if err := r.client.Del(ctx, intakeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete intake: %w", err)
	}
	return nil
}

// MarkGreeted uses SADD, which reports 1 only for a new member.
func (r *Redis) MarkGreeted(ctx context.Context, key model.ConversationKey) (bool, error) {
	added, err := r.client.SAdd(ctx, greetedKey, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark greeted: %w", err)
	}
	return added == 1, nil
}

// IncrementUsage uses HINCRBY on a per-conversation hash keyed by topic.
func (r *Redis) IncrementUsage(ctx context.Context, key model.ConversationKey, topic string) (int64, error) {
	n, err := r.client.HIncrBy(ctx, usageKey(key), topic, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return n, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
