package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ashu27-arc/cricket-backend/internal/metrics"
	"github.com/Ashu27-arc/cricket-backend/internal/model"
)

// RedisMirror implements Mirror on top of Redis. Match state is a plain
// JSON value; commentary is a Redis list with newest entries pushed to the
// head, matching the broadcast order seen by subscribers.
type RedisMirror struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisMirror creates a mirror with the given entry TTL.
func NewRedisMirror(rdb *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{rdb: rdb, ttl: ttl}
}

// Ping verifies the Redis connection.
func (m *RedisMirror) Ping(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

func (m *RedisMirror) GetMatch(ctx context.Context, matchID string) (*model.Match, bool) {
	data, err := m.rdb.Get(ctx, matchKey(matchID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("mirror read failed", "match_id", matchID, "err", err)
		}
		metrics.CacheMisses.WithLabelValues("match").Inc()
		return nil, false
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		metrics.CacheMisses.WithLabelValues("match").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("match").Inc()
	return &match, true
}

func (m *RedisMirror) PutMatch(ctx context.Context, match *model.Match) {
	data, err := json.Marshal(match)
	if err != nil {
		return
	}
	if err := m.rdb.Set(ctx, matchKey(match.MatchID), data, m.ttl).Err(); err != nil {
		slog.Warn("mirror write failed", "match_id", match.MatchID, "err", err)
	}
}

func (m *RedisMirror) AppendCommentary(ctx context.Context, matchID string, c *model.Commentary) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	key := commentaryKey(matchID)
	pipe := m.rdb.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("mirror append failed", "match_id", matchID, "err", err)
	}
}

func (m *RedisMirror) ListCommentary(ctx context.Context, matchID string) ([]model.Commentary, bool) {
	items, err := m.rdb.LRange(ctx, commentaryKey(matchID), 0, -1).Result()
	if err != nil || len(items) == 0 {
		// Empty is a miss: the durable store may hold entries written
		// before the cache was warm.
		metrics.CacheMisses.WithLabelValues("commentary").Inc()
		return nil, false
	}

	entries := make([]model.Commentary, 0, len(items))
	for _, item := range items {
		var c model.Commentary
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			metrics.CacheMisses.WithLabelValues("commentary").Inc()
			return nil, false
		}
		entries = append(entries, c)
	}

	// List head is the newest entry; present in (over, ball) display order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Over != entries[j].Over {
			return entries[i].Over < entries[j].Over
		}
		return entries[i].Ball < entries[j].Ball
	})
	metrics.CacheHits.WithLabelValues("commentary").Inc()
	return entries, true
}

func (m *RedisMirror) InvalidateMatch(ctx context.Context, matchID string) {
	if err := m.rdb.Del(ctx, matchKey(matchID), commentaryKey(matchID)).Err(); err != nil {
		slog.Warn("mirror invalidate failed", "match_id", matchID, "err", err)
	}
}

func matchKey(id string) string      { return fmt.Sprintf("match:%s", id) }
func commentaryKey(id string) string { return fmt.Sprintf("commentary:%s", id) }
