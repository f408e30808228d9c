package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNilClient = errors.New("genstore: nil redis client")

// RedisConfig configures a Redis-backed GenStore.
type RedisConfig struct {
	Client redis.UniversalClient
	// Prefix isolates the counters of one deployment, e.g. "app:prod".
	Prefix string
	// TTL refreshes on every bump; 0 keeps counters forever. An expired
	// counter reads as 0 and cached entries under it self-heal.
	TTL time.Duration
	// CloseClient closes Client on Close. Set only when the store owns it.
	CloseClient bool
}

// Redis shares generations across processes and survives restarts, so an
// Invalidate on one replica hides the entries every replica wrote.
type Redis struct {
	rdb         redis.UniversalClient
	prefix      string
	ttl         time.Duration
	closeClient bool
}

var _ GenStore = (*Redis)(nil)

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, prefix: cfg.Prefix, ttl: cfg.TTL, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) key(k string) string { return "gen:" + s.prefix + ":" + k }

func (s *Redis) Snapshot(ctx context.Context, k string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(k)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseGen(k, res)
}

// SnapshotMany issues a single MGET.
func (s *Redis) SnapshotMany(ctx context.Context, ks []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ks))
	if len(ks) == 0 {
		return out, nil
	}
	keys := make([]string, len(ks))
	for i, k := range ks {
		keys[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		g, err := parseGen(ks[i], v)
		if err != nil {
			return nil, err
		}
		out[ks[i]] = g
	}
	return out, nil
}

// Bump increments the counter. With a TTL, INCR and EXPIRE share one
// pipelined round trip.
func (s *Redis) Bump(ctx context.Context, k string) (uint64, error) {
	rk := s.key(k)
	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, rk).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, rk)
		p.Expire(ctx, rk, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is not applicable; Redis expires counters itself when TTL is set.
func (s *Redis) Cleanup(time.Duration) {}

func (s *Redis) Close(context.Context) error {
	if !s.closeClient {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// parseGen converts a GET/MGET reply into a generation. nil means missing.
func parseGen(k string, v any) (uint64, error) {
	var s string
	switch vv := v.(type) {
	case nil:
		return 0, nil
	case string:
		s = vv
	case []byte:
		s = string(vv)
	default:
		s = fmt.Sprint(vv)
	}
	g, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("genstore: parse gen at %s: %w", k, err)
	}
	return g, nil
}
