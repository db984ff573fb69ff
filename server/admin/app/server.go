package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stream_server/server/admin/api"
	"stream_server/server/admin/service"
	catalogservice "stream_server/server/catalog/service"
	"stream_server/server/common/auth"
	"stream_server/server/common/infra/db"
	"stream_server/server/common/infra/mq"
	"stream_server/server/common/infra/object"
	"stream_server/server/common/middleware"
	"stream_server/server/repository"
)

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool
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
	gateway, err := object.New(ctx, cfg.Storage)
	if err != nil {
		pool.Close()
		return nil, err
	}
	publisher, closeMQ, err := mq.FromConfig(cfg.MQ)
	if err != nil {
		pool.Close()
		return nil, err
	}

	videos := repository.NewVideoRepository(pool)
	videoSvc := service.NewVideoService(videos, gateway, publisher)
	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTLMinutes)
	urls := catalogservice.NewURLBuilder(cfg.PublicURL, cfg.Storage.PublicURL)

	h := api.NewHandler(videoSvc, authSvc, urls, map[string]api.ReadinessCheck{
		"postgres": videos.Ping,
		"storage":  gateway.Ping,
	})
	r := middleware.NewEngine("admin", cfg.HTTP.ClientURLs)
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &Server{HTTPServer: httpServer, DB: pool, closeMQ: closeMQ}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTPServer.Shutdown(ctx)
	if s.closeMQ != nil {
		s.closeMQ()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return err
}
