package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"stream_server/server/chat/api"
	"stream_server/server/chat/service"
	"stream_server/server/common/auth"
	"stream_server/server/common/infra/cache"
	"stream_server/server/common/infra/db"
	"stream_server/server/common/infra/mq"
	"stream_server/server/common/middleware"
	"stream_server/server/repository"
)

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Relay      *service.Relay
	closeMQ    func()
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	checks := map[string]api.ReadinessCheck{"postgres": pool.Ping}
	opts := service.Options{
		HistoryLimit:     cfg.HistoryLimit,
		MaxMessageLength: cfg.MaxMessageLength,
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = cache.NewClient(cfg.Redis.Addr)
		if err := cache.Ping(ctx, redisClient); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		opts.Dedupe = cache.NewDeduper(redisClient, cfg.DedupeTTL)
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
	}

	publisher, closeMQ, err := mq.FromConfig(cfg.MQ)
	if err != nil {
		pool.Close()
		return nil, err
	}
	opts.Events = publisher

	chatSvc := service.NewChatService(repository.NewMessageRepository(pool), opts)
	relay := service.NewRelay(service.NewRegistry(), chatSvc)
	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTLMinutes)

	h := api.NewHandler(chatSvc, relay, authSvc, cfg.HTTP.ClientURLs, checks)
	r := middleware.NewEngine("chat", cfg.HTTP.ClientURLs)
	h.RegisterRoutes(r)

	// WriteTimeout stays unset for long lived websocket connections.
	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout: cfg.HTTP.IdleTimeout,
	}

	return &Server{HTTPServer: httpServer, DB: pool, Redis: redisClient, Relay: relay, closeMQ: closeMQ}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTPServer.Shutdown(ctx)
	// Hijacked websocket connections are not tracked by http.Server.
	if s.Relay != nil {
		s.Relay.Shutdown()
	}
	if s.closeMQ != nil {
		s.closeMQ()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return err
}
