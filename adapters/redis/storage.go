package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loyaltykit/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - user:{user_id}:xp -> int64 (XP total)
// - user:{user_id}:orders -> int64 (completed order count)
// - user:{user_id}:level -> int64 (stored loyalty level)
// - user:{user_id}:state -> JSON blob of UserState for quick retrieval
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func userXPKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:xp", userID)
}

func userOrdersKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:orders", userID)
}

func userLevelKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:level", userID)
}

func userStateKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:state", userID)
}

// Lua script for atomic XP addition with overflow protection
var addXPScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])
	local current = tonumber(redis.call('GET', key) or '0')
	local next_val = current + delta

	-- Check for overflow (simplified check for large numbers)
	if next_val > 9223372036854775807 or next_val < -9223372036854775808 then
		return redis.error_reply('integer overflow')
	end

	redis.call('SET', key, next_val)
	return next_val
`)

// AddXP atomically adds XP with overflow protection
func (s *Store) AddXP(ctx context.Context, userID core.UserID, delta int64) (int64, error) {
	key := userXPKey(userID)
	result, err := addXPScript.Run(ctx, s.client, []string{key}, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}

	total, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected result type from Redis script")
	}

	// Invalidate cached state since it changed
	s.invalidateStateCache(ctx, userID)

	return total, nil
}

// RecordOrder increments the user's completed order counter
func (s *Store) RecordOrder(ctx context.Context, userID core.UserID) (int64, error) {
	orders, err := s.client.Incr(ctx, userOrdersKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record order: %w", err)
	}

	// Invalidate cached state since it changed
	s.invalidateStateCache(ctx, userID)

	return orders, nil
}

// GetState retrieves the complete user state, using cache when possible
func (s *Store) GetState(ctx context.Context, userID core.UserID) (core.UserState, error) {
	// Try to get from cache first
	cached, err := s.getCachedState(ctx, userID)
	if err == nil {
		return cached, nil
	}

	// Cache miss or error, rebuild from individual keys
	state, err := s.buildStateFromKeys(ctx, userID)
	if err != nil {
		return core.UserState{}, err
	}

	// Update cache (best-effort); keep it synchronous for determinism.
	ctxCache, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	_ = s.updateStateCache(ctxCache, userID, state)

	return state, nil
}

// SetLevel sets the user's stored loyalty level
func (s *Store) SetLevel(ctx context.Context, userID core.UserID, level int64) error {
	err := s.client.Set(ctx, userLevelKey(userID), level, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}

	// Invalidate cached state since it changed
	s.invalidateStateCache(ctx, userID)

	return nil
}

// getCachedState attempts to retrieve the cached user state
func (s *Store) getCachedState(ctx context.Context, userID core.UserID) (core.UserState, error) {
	key := userStateKey(userID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return core.UserState{}, err
	}

	var state core.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		return core.UserState{}, err
	}

	return state, nil
}

// updateStateCache stores the user state in cache with a TTL
func (s *Store) updateStateCache(ctx context.Context, userID core.UserID, state core.UserState) error {
	key := userStateKey(userID)
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	// Cache for 5 minutes
	return s.client.Set(ctx, key, data, 5*time.Minute).Err()
}

// invalidateStateCache removes the cached state
func (s *Store) invalidateStateCache(ctx context.Context, userID core.UserID) {
	s.client.Del(ctx, userStateKey(userID))
}

// buildStateFromKeys reconstructs the user state from individual Redis keys
func (s *Store) buildStateFromKeys(ctx context.Context, userID core.UserID) (core.UserState, error) {
	state := core.UserState{
		UserID:  userID,
		Updated: time.Now().UTC(),
	}

	xp, err := s.client.Get(ctx, userXPKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return core.UserState{}, fmt.Errorf("failed to get xp: %w", err)
	}
	state.XP = xp

	orders, err := s.client.Get(ctx, userOrdersKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return core.UserState{}, fmt.Errorf("failed to get orders: %w", err)
	}
	state.Orders = orders

	level, err := s.client.Get(ctx, userLevelKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return core.UserState{}, fmt.Errorf("failed to get level: %w", err)
	}
	state.Level = level

	return state, nil
}
