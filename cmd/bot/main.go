package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Spok95/kino-bot/internal/access"
	"github.com/Spok95/kino-bot/internal/bot"
	"github.com/Spok95/kino-bot/internal/config"
	"github.com/Spok95/kino-bot/internal/dialog"
	"github.com/Spok95/kino-bot/internal/domain/admins"
	"github.com/Spok95/kino-bot/internal/domain/catalog"
	"github.com/Spok95/kino-bot/internal/domain/channels"
	"github.com/Spok95/kino-bot/internal/domain/settings"
	"github.com/Spok95/kino-bot/internal/domain/submissions"
	"github.com/Spok95/kino-bot/internal/domain/users"
	"github.com/Spok95/kino-bot/internal/infra/db"
	httpx "github.com/Spok95/kino-bot/internal/infra/http"
	"github.com/Spok95/kino-bot/internal/infra/logger"
	"github.com/Spok95/kino-bot/internal/infra/metrics"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)

	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("db connected")

	states, closeStates, err := sessionStore(ctx, cfg, pool, log)
	if err != nil {
		log.Error("session store failed", "backend", cfg.Session.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStates()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram auth failed", "err", err)
		os.Exit(1)
	}
	log.Info("authorized", "bot", api.Self.UserName)

	var gatherer prometheus.Gatherer
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	channelRepo := channels.NewRepo(pool)
	b := bot.New(bot.Deps{
		API:      api,
		Log:      log,
		Metrics:  m,
		Users:    users.NewRepo(pool),
		Catalog:  catalog.NewRepo(pool),
		Channels: channelRepo,
		Subs:     submissions.NewRepo(pool),
		Settings: settings.NewRepo(pool),
		Roles:    admins.NewResolver(cfg.Telegram.PrimaryAdminID, admins.NewRepo(pool)),
		Gate:     access.NewGate(channelRepo, bot.NewMembers(api), log),
		States:   states,
		Workers:  cfg.Broadcast.Workers,
	})

	srv := httpx.New(cfg.HTTP.Addr, gatherer)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if err := b.Run(ctx, cfg.Telegram.PollTimeout); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

func sessionStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, log *slog.Logger) (dialog.Store, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return dialog.NewRedisStore(client, cfg.Session.TTL), func() { _ = client.Close() }, nil
	case "memory":
		log.Warn("in-memory sessions are lost on restart")
		return dialog.NewMemoryStore(), func() {}, nil
	default:
		return dialog.NewPGStore(pool), func() {}, nil
	}
}
