package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/graceteusch/chess/internal/engine"
)

const (
	keyGameCounter = "chess:game:next"
	keyGameIndex   = "chess:games"
)

// Redis backs all three store contracts with a single go-redis client.
// Games live forever; auth tokens expire after authTTL.
type Redis struct {
	rdb     *redis.Client
	authTTL time.Duration
}

// NewRedis connects to the given redis:// URL and pings it once so a
// bad address fails at startup rather than on the first command.
func NewRedis(redisURL string, authTTL time.Duration) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, authTTL: authTTL}, nil
}

// NewRedisFromClient wraps an existing client; used by tests with
// miniredis.
func NewRedisFromClient(rdb *redis.Client, authTTL time.Duration) *Redis {
	return &Redis{rdb: rdb, authTTL: authTTL}
}

func (s *Redis) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func keyAuth(token string) string    { return "chess:auth:" + strings.TrimSpace(token) }
func keyUser(username string) string { return "chess:user:" + strings.TrimSpace(username) }
func keyGame(id int64) string        { return "chess:game:" + strconv.FormatInt(id, 10) }

func (s *Redis) CreateAuth(ctx context.Context, token, username string) error {
	return s.rdb.Set(ctx, keyAuth(token), username, s.authTTL).Err()
}

func (s *Redis) GetAuth(ctx context.Context, token string) (*AuthRecord, error) {
	username, err := s.rdb.Get(ctx, keyAuth(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &AuthRecord{Token: token, Username: username}, nil
}

func (s *Redis) DeleteAuth(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, keyAuth(token)).Err()
}

func (s *Redis) CreateUser(ctx context.Context, user *UserRecord) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, keyUser(user.Username), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateUser
	}
	return nil
}

func (s *Redis) GetUser(ctx context.Context, username string) (*UserRecord, error) {
	raw, err := s.rdb.Get(ctx, keyUser(username)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u UserRecord
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Redis) CreateGame(ctx context.Context, name string, game *engine.Game) (*GameRecord, error) {
	id, err := s.rdb.Incr(ctx, keyGameCounter).Result()
	if err != nil {
		return nil, err
	}
	rec := &GameRecord{ID: id, Name: name, Game: game}
	if err := s.writeGame(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.rdb.SAdd(ctx, keyGameIndex, strconv.FormatInt(id, 10)).Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Redis) GetGame(ctx context.Context, id int64) (*GameRecord, error) {
	raw, err := s.rdb.Get(ctx, keyGame(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Redis) ListGames(ctx context.Context, limit int) ([]*GameRecord, error) {
	ids, err := s.rdb.SMembers(ctx, keyGameIndex).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*GameRecord, 0, len(ids))
	for _, raw := range ids {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		rec, gerr := s.GetGame(ctx, id)
		if gerr != nil || rec == nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Redis) UpdateGame(ctx context.Context, rec *GameRecord) error {
	return s.writeGame(ctx, rec)
}

func (s *Redis) writeGame(ctx context.Context, rec *GameRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyGame(rec.ID), raw, 0).Err()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
