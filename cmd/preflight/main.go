// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/config"
	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/registry"
	"github.com/hamed0406/botscope/internal/repo"
	"github.com/hamed0406/botscope/internal/repo/file"
	"github.com/hamed0406/botscope/internal/repo/postgres"
	"github.com/hamed0406/botscope/internal/repo/redis"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fail(err.Error())
	}
	ok("API_ADDR=" + cfg.Addr)
	ok(fmt.Sprintf("heartbeat every %s, evict after %s down", cfg.HeartbeatInterval, cfg.DowntimeThreshold))

	for _, msg := range scheduleWarnings(cfg) {
		warn(msg)
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		warn("ALLOWED_ORIGINS is * (any origin may call the API)")
	}
	if cfg.RegisterRPM <= 0 {
		warn("REGISTER_RPM <= 0 disables registration rate limiting")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fail(err.Error())
	}
	defer closeStore()
	if store == nil {
		warn("STORE_BACKEND=memory: targets are lost on restart")
		ok("preflight passed")
		return
	}

	targets, err := store.LoadAll(ctx)
	if err != nil {
		warn(fmt.Sprintf("%s store unreadable, the API will start with no targets: %v", cfg.StoreBackend, err))
		ok("preflight passed")
		return
	}
	for _, msg := range checkTargets(targets) {
		warn(msg)
	}
	ok(fmt.Sprintf("%s store holds %d target(s)", cfg.StoreBackend, len(targets)))
	ok("preflight passed")
}

func scheduleWarnings(cfg config.Config) []string {
	var msgs []string
	if cfg.FastInterval > 0 {
		msgs = append(msgs, fmt.Sprintf("FAST_INTERVAL_MS set: targets are also checked every %s and each success adds %s of uptime",
			cfg.FastInterval, cfg.HeartbeatInterval))
		if cfg.FastInterval < cfg.CheckTimeout {
			msgs = append(msgs, fmt.Sprintf("FAST_INTERVAL_MS (%s) is shorter than CHECK_TIMEOUT_MS (%s): a hanging target is checked at most once per %s on the fast cadence",
				cfg.FastInterval, cfg.CheckTimeout, cfg.CheckTimeout))
		}
	}
	if cfg.DowntimeThreshold < cfg.HeartbeatInterval {
		msgs = append(msgs, "DOWNTIME_THRESHOLD_MS is shorter than the heartbeat; one failed check is enough to evict")
	}
	return msgs
}

func openStore(ctx context.Context, cfg config.Config) (repo.TargetStore, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return nil, noop, nil
	case config.BackendPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, zap.NewNop())
		if err != nil {
			return nil, noop, fmt.Errorf("postgres unreachable: %w", err)
		}
		return s, s.Close, nil
	case config.BackendRedis:
		s, err := redis.New(ctx, redis.Options{
			Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB, Key: cfg.RedisKey,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("redis unreachable: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		if _, err := os.Stat(cfg.TargetsFile); os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "⚠", cfg.TargetsFile+" does not exist yet; it is created on the first registration")
		}
		return file.New(cfg.TargetsFile), noop, nil
	}
}

// checkTargets reports entries the API would skip on load.
func checkTargets(targets []domain.Target) []string {
	var msgs []string
	names := map[string]bool{}
	urls := map[string]bool{}
	for i, t := range targets {
		if err := registry.Validate(t.Name, t.URL); err != nil {
			msgs = append(msgs, fmt.Sprintf("entry %d (%q) will be skipped: %v", i, t.Name, err))
			continue
		}
		if names[t.Name] || urls[t.URL] {
			msgs = append(msgs, fmt.Sprintf("entry %d (%q) duplicates an earlier name or url and will be skipped", i, t.Name))
			continue
		}
		names[t.Name], urls[t.URL] = true, true
	}
	return msgs
}
