package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultTTL keeps a timetable around long enough to reschedule across midnight.
const DefaultTTL = 48 * time.Hour

// commander is the subset of redis.Cmdable the cache uses.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func NewRedisClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// TimetableCache stores the most recently fetched timetable per user.
type TimetableCache struct {
	rdb commander
	ttl time.Duration
}

func NewTimetableCache(rdb commander, ttl time.Duration) *TimetableCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TimetableCache{rdb: rdb, ttl: ttl}
}

func timetableKey(userID int64) string {
	return fmt.Sprintf("timetable:%d", userID)
}

// Get returns the cached timetable, or nil when nothing usable is stored.
func (c *TimetableCache) Get(ctx context.Context, userID int64) (*models.Timetable, error) {
	raw, err := c.rdb.Get(ctx, timetableKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached timetable: %w", err)
	}

	tt, err := decodeTimetable(raw)
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("Discarding unreadable cached timetable")
		return nil, nil
	}
	return tt, nil
}

func (c *TimetableCache) Set(ctx context.Context, userID int64, tt *models.Timetable) error {
	raw, err := json.Marshal(tt)
	if err != nil {
		return fmt.Errorf("failed to encode timetable: %w", err)
	}
	if err := c.rdb.Set(ctx, timetableKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache timetable: %w", err)
	}
	return nil
}

// Invalidate drops the cached timetable, e.g. after the user moves.
func (c *TimetableCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.rdb.Del(ctx, timetableKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate timetable: %w", err)
	}
	return nil
}

func decodeTimetable(raw []byte) (*models.Timetable, error) {
	var tt models.Timetable
	if err := json.Unmarshal(raw, &tt); err != nil {
		return nil, err
	}
	if len(tt.Times) == 0 {
		return nil, errors.New("timetable has no prayer times")
	}
	return &tt, nil
}
