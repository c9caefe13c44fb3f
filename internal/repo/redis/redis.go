// Package redis stores the target list as one Redis list of JSON members.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)

type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

type Store struct {
	rdb *goredis.Client
	key string
}

func New(ctx context.Context, opts Options) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctxPing).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(rdb, opts.Key), nil
}

func NewWithClient(rdb *goredis.Client, key string) *Store {
	return &Store{rdb: rdb, key: key}
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) LoadAll(ctx context.Context) ([]domain.Target, error) {
	members, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", s.key, err)
	}
	out := make([]domain.Target, 0, len(members))
	for _, m := range members {
		var t domain.Target
		if err := json.Unmarshal([]byte(m), &t); err != nil {
			return nil, fmt.Errorf("decode target %q: %w", m, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// SaveAll swaps the list contents inside MULTI/EXEC.
func (s *Store) SaveAll(ctx context.Context, targets []domain.Target) error {
	members := make([]any, 0, len(targets))
	for _, t := range targets {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode target: %w", err)
		}
		members = append(members, string(b))
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(members) > 0 {
			pipe.RPush(ctx, s.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save targets: %w", err)
	}
	return nil
}
