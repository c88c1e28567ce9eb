// Package redis provides a score backend on Redis sorted sets. Totals live in
// one sorted set, daily totals in per-day sets that expire after a few days.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-minigame-bot/internal/model"
)

const (
	keyTotal   = "scores:total"
	keyNames   = "scores:names"
	keyCreated = "scores:created"
	dailyTTL   = 72 * time.Hour
)

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the timezone that decides which daily set an award
// belongs to. It must match the location of the day passed to DailyTop.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		s.loc = loc
	}
}

// WithPrefix namespaces every key, so several bots can share a server.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// Store is the Redis score backend.
type Store struct {
	rdb    *redis.Client
	loc    *time.Location
	prefix string
	now    func() time.Time
}

// Open connects to the server at redisURL (redis://[:password@]host:port/db).
func Open(ctx context.Context, redisURL string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis: url is required")
	}
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: cannot parse url: %w", err)
	}

	rdb := redis.NewClient(options)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(rdb, opts...), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{rdb: rdb, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the client.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) dailyKey(day time.Time) string {
	return s.key("scores:daily:" + day.In(s.loc).Format("2006-01-02"))
}

// AddPoints increments the player's total and today's total atomically.
func (s *Store) AddPoints(ctx context.Context, playerID int64, username string, amount int64, reason string) (*model.Player, error) {
	now := s.now()
	member := strconv.FormatInt(playerID, 10)
	daily := s.dailyKey(now)

	var total *redis.FloatCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.ZIncrBy(ctx, s.key(keyTotal), float64(amount), member)
		pipe.ZIncrBy(ctx, daily, float64(amount), member)
		pipe.Expire(ctx, daily, dailyTTL)
		pipe.HSetNX(ctx, s.key(keyCreated), member, now.Unix())
		if username != "" {
			pipe.HSet(ctx, s.key(keyNames), member, username)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis: cannot add points (%s): %w", reason, err)
	}

	player, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	player.Points = int64(total.Val())
	player.UpdatedAt = now
	return player, nil
}

// GetPlayer retrieves a player's total.
func (s *Store) GetPlayer(ctx context.Context, playerID int64) (*model.Player, error) {
	member := strconv.FormatInt(playerID, 10)

	points, err := s.rdb.ZScore(ctx, s.key(keyTotal), member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("redis: cannot get score: %w", err)
	}

	vals, err := s.rdb.HMGet(ctx, s.key(keyNames), member).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: cannot get name: %w", err)
	}
	created, err := s.rdb.HGet(ctx, s.key(keyCreated), member).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: cannot get created time: %w", err)
	}

	return &model.Player{
		ID:        playerID,
		Username:  asString(vals[0]),
		Points:    int64(points),
		CreatedAt: time.Unix(created, 0),
	}, nil
}

// TopPlayers retrieves the top N players by total points.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]*model.Rank, error) {
	return s.top(ctx, s.key(keyTotal), limit, false)
}

// DailyTop retrieves the top N players for the day containing day.
func (s *Store) DailyTop(ctx context.Context, day time.Time, limit int) ([]*model.Rank, error) {
	return s.top(ctx, s.dailyKey(day), limit, true)
}

func (s *Store) top(ctx context.Context, key string, limit int, positiveOnly bool) ([]*model.Rank, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.rdb.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: cannot read leaderboard: %w", err)
	}

	ranks := make([]*model.Rank, 0, len(entries))
	members := make([]string, 0, len(entries))
	for _, e := range entries {
		if positiveOnly && e.Score <= 0 {
			continue
		}
		member, _ := e.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: bad leaderboard member %q: %w", member, err)
		}
		ranks = append(ranks, &model.Rank{PlayerID: id, Points: int64(e.Score)})
		members = append(members, member)
	}
	if len(members) == 0 {
		return ranks, nil
	}

	names, err := s.rdb.HMGet(ctx, s.key(keyNames), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: cannot get names: %w", err)
	}
	for i, n := range names {
		ranks[i].Username = asString(n)
	}
	return ranks, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
